package tasks

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies the valuation a task performs
type Type string

const (
	TypeBlackScholes Type = "black_scholes"
	TypeBinomialTree Type = "binomial_tree"
	TypeMonteCarlo   Type = "monte_carlo"
	TypeExotic       Type = "exotic"
	TypeImpliedVol   Type = "implied_vol"
	TypeBond         Type = "bond"
	TypePortfolio    Type = "portfolio"
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Task is the envelope published to the task topic. The payload is the raw
// request document for the task type; the worker resolves it against the
// engine call contracts.
type Task struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// Result is the envelope published to the results topic once a task settles
type Result struct {
	TaskID      string          `json:"taskId"`
	Type        Type            `json:"type"`
	Status      Status          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submittedAt"`
	CompletedAt time.Time       `json:"completedAt"`
}

// NewTask wraps a request payload in a task envelope with a fresh ID
func NewTask(taskType Type, payload json.RawMessage) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Type:        taskType,
		Payload:     payload,
		SubmittedAt: time.Now().UTC(),
	}
}

// ValidType reports whether t names a known task type
func ValidType(t Type) bool {
	switch t {
	case TypeBlackScholes, TypeBinomialTree, TypeMonteCarlo, TypeExotic,
		TypeImpliedVol, TypeBond, TypePortfolio:
		return true
	}
	return false
}
