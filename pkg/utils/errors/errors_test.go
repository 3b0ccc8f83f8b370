package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidParameter, KindOf(InvalidParameter("bad")))
	assert.Equal(t, KindNoConvergence, KindOf(NoConvergence("stuck")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindTimeout, KindOf(Timeout("slow")))
	assert.Equal(t, KindUnknown, KindOf(New("plain")))
}

func TestWrapPreservesKind(t *testing.T) {
	inner := NoConvergence("no sign change")
	wrapped := Wrapf(inner, "yield solve for price %g", 5000.0)

	require.Error(t, wrapped)
	assert.Equal(t, KindNoConvergence, KindOf(wrapped))
	assert.True(t, Is(wrapped, ErrNoConvergence))
	assert.Contains(t, wrapped.Error(), "yield solve")
	assert.Contains(t, wrapped.Error(), "no sign change")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
}

func TestSentinelMatching(t *testing.T) {
	assert.True(t, Is(InvalidParameter("x"), ErrInvalidInput))
	assert.True(t, Is(NotFound("x"), ErrNotFound))
	assert.False(t, Is(Internal("x"), ErrNoConvergence))
}
