package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(60, 2)
	assert.Equal(t, 60, l.PerMinute())

	assert.True(t, l.Allow("demo"))
	assert.True(t, l.Allow("demo"))
	assert.False(t, l.Allow("demo"))

	// playgrounds are limited independently
	assert.True(t, l.Allow("other"))
}

func TestLimiter_Forget(t *testing.T) {
	l := NewLimiter(1, 1)
	assert.True(t, l.Allow("demo"))
	assert.False(t, l.Allow("demo"))

	l.Forget("demo")
	assert.True(t, l.Allow("demo"))
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.Equal(t, rate.Inf, l.GetLimiter("demo").Limit())
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("demo"))
	}
}

func TestLimiter_SharedPerPlayground(t *testing.T) {
	l := NewLimiter(60, 5)
	assert.Same(t, l.GetLimiter("demo"), l.GetLimiter("demo"))
	assert.InDelta(t, 5, l.Tokens("demo"), 0.01)
}
