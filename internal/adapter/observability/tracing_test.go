package observability

import (
	"context"
	"testing"

	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestSetupTracing_WithEndpoint(t *testing.T) {
	// The gRPC exporter dials lazily, so setup succeeds without a collector.
	shutdown, err := SetupTracing(config.Config{OTLPEndpoint: "localhost:4317", OTELServiceName: "test-service"})
	if err != nil {
		assert.Nil(t, shutdown)
		return
	}
	require.NotNil(t, shutdown)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestSamplingRatio(t *testing.T) {
	assert.InDelta(t, 0.1, SamplingRatio(config.Config{AppEnv: "prod"}), 1e-9)
	assert.InDelta(t, 1.0, SamplingRatio(config.Config{AppEnv: "dev"}), 1e-9)
}
