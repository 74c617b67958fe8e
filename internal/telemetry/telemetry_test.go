package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters_NoProvider(t *testing.T) {
	assert.NotPanics(t, func() {
		CommandExecuted(context.Background(), "help")
		EggDiscovered(context.Background(), "home-hero-click", 15)
	})
	assert.NotNil(t, commandCounter)
	assert.NotNil(t, eggCounter)
}
