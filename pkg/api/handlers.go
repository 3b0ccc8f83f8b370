package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quantserve/valuation-engine/internal/cache"
	"github.com/quantserve/valuation-engine/internal/tasks"
	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

// statusFor maps an engine error kind to an HTTP status
func statusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindInvalidParameter:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindNoConvergence, errors.KindNumericallyDegenerate:
		return http.StatusUnprocessableEntity
	case errors.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// respond runs a valuation, recording its latency and outcome
func (s *Server) respond(c *gin.Context, model string, compute func() (interface{}, error)) {
	start := time.Now()
	result, err := compute()
	if err != nil {
		s.rec.RecordValuation(model, "error", time.Since(start))
		s.respondError(c, err)
		return
	}
	s.rec.RecordValuation(model, "ok", time.Since(start))
	c.JSON(http.StatusOK, result)
}

// respondCached is respond with a result-cache consultation. Simulations are
// deterministic for a given request, so a cached payload is an exact replay.
func (s *Server) respondCached(c *gin.Context, model string, req interface{}, compute func() (interface{}, error)) {
	key := cache.Key(model, req)
	if payload, ok := s.results.Get(key); ok {
		s.rec.RecordCacheHit(model)
		c.Data(http.StatusOK, "application/json", payload)
		return
	}
	s.rec.RecordCacheMiss(model)

	start := time.Now()
	result, err := compute()
	if err != nil {
		s.rec.RecordValuation(model, "error", time.Since(start))
		s.respondError(c, err)
		return
	}
	s.rec.RecordValuation(model, "ok", time.Since(start))

	payload, err := json.Marshal(result)
	if err != nil {
		s.respondError(c, errors.Internal("failed to encode result: "+err.Error()))
		return
	}
	s.results.Set(key, payload)
	c.Data(http.StatusOK, "application/json", payload)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"pending": s.taskStore.Len(),
	})
}

func (s *Server) handleBlackScholes(c *gin.Context) {
	var req models.OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respond(c, "black-scholes", func() (interface{}, error) {
		return s.eng.PriceBlackScholes(&req)
	})
}

func (s *Server) handleBinomialTree(c *gin.Context) {
	var req models.BinomialTreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respond(c, "binomial-tree", func() (interface{}, error) {
		return s.eng.PriceBinomialTree(&req)
	})
}

func (s *Server) handleMonteCarlo(c *gin.Context) {
	var req models.MonteCarloRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respondCached(c, "monte-carlo-vanilla", &req, func() (interface{}, error) {
		result, err := s.eng.PriceVanillaMonteCarlo(c.Request.Context(), &req)
		if result != nil {
			s.rec.RecordSimulatedPaths(result.Model, result.NumPaths)
		}
		return result, err
	})
}

func (s *Server) handleExotic(c *gin.Context) {
	var req models.ExoticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respondCached(c, "monte-carlo-exotic", &req, func() (interface{}, error) {
		result, err := s.eng.PriceExotic(c.Request.Context(), &req)
		if result != nil {
			s.rec.RecordSimulatedPaths(result.Model, result.NumPaths)
		}
		return result, err
	})
}

func (s *Server) handleImpliedVol(c *gin.Context) {
	var req models.ImpliedVolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respond(c, "implied-vol", func() (interface{}, error) {
		return s.eng.ImpliedVolatility(c.Request.Context(), &req)
	})
}

func (s *Server) handleOptionChain(c *gin.Context) {
	var req models.OptionChainRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respond(c, "option-chain", func() (interface{}, error) {
		chain, err := s.eng.OptionChain(&req)
		if err != nil {
			return nil, err
		}
		return gin.H{"spot": req.Spot, "maturity": req.Maturity, "chain": chain}, nil
	})
}

func (s *Server) handleVolSurface(c *gin.Context) {
	var req models.VolSurfaceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respond(c, "vol-surface", func() (interface{}, error) {
		points, err := s.eng.VolatilitySurface(&req)
		if err != nil {
			return nil, err
		}
		return gin.H{"spot": req.Spot, "surface": points}, nil
	})
}

func (s *Server) handleBond(c *gin.Context) {
	var req models.BondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respond(c, "bond", func() (interface{}, error) {
		return s.eng.PriceBond(c.Request.Context(), &req)
	})
}

func (s *Server) handleNPV(c *gin.Context) {
	var req models.NPVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respond(c, "npv", func() (interface{}, error) {
		npv, err := s.eng.NetPresentValue(&req)
		if err != nil {
			return nil, err
		}
		return gin.H{"npv": npv}, nil
	})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	var req models.PortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}
	s.respondCached(c, "portfolio", &req, func() (interface{}, error) {
		return s.eng.SimulatePortfolio(c.Request.Context(), &req)
	})
}

// submitTaskRequest is the async submission envelope
type submitTaskRequest struct {
	Type    tasks.Type      `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

func (s *Server) handleSubmitTask(c *gin.Context) {
	var req submitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidParameter(err.Error()))
		return
	}

	task, err := s.dispatcher.Submit(c.Request.Context(), req.Type, req.Payload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"taskId":      task.ID,
		"type":        task.Type,
		"status":      tasks.StatusPending,
		"submittedAt": task.SubmittedAt,
	})
}

func (s *Server) handleGetTask(c *gin.Context) {
	result, err := s.taskStore.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
