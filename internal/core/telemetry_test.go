// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/tenant-api/internal/config"
)

func TestNewTelemetryDisabled(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.OtelConfig{}, config.AppConfig{})
	require.NoError(t, err)
	assert.Nil(t, tel.provider)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNewTraceExporterIsLazy(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	exporter, err := newTraceExporter(ctx, config.OtelConfig{
		Endpoint: "127.0.0.1:1",
		Insecure: true,
	})
	require.NoError(t, err)
	assert.NoError(t, exporter.Shutdown(ctx))
}

func TestSampleRateBounds(t *testing.T) {
	assert.Equal(t, defaultSampleRate, sampleRate(0))
	assert.Equal(t, defaultSampleRate, sampleRate(1.5))
	assert.InDelta(t, 0.25, sampleRate(0.25), 1e-9)
}
