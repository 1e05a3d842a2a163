package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBeforeSetup(t *testing.T) {
	require.NotNil(t, Get(), "Get self-initializes")
}

func TestSetupIdempotent(t *testing.T) {
	Setup("DEBUG")
	l := Get()
	Setup("ERROR") // ignored, Setup runs once
	assert.Same(t, l, Get())
}

func TestWithHelpers(t *testing.T) {
	assert.NotNil(t, WithComponent("test"))
	assert.NotNil(t, WithSignal("order.created"))
	assert.NotNil(t, WithEmission("em-1"))
}
