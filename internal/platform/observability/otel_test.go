package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

func TestLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, logLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logLevel(" warning "))
	require.Equal(t, slog.LevelError, logLevel("error"))
	require.Equal(t, slog.LevelInfo, logLevel(""))
	require.Equal(t, slog.LevelInfo, logLevel("verbose"))
}

func TestNilInstrumentsFallBackToGlobals(t *testing.T) {
	var instruments *Instruments
	require.NotNil(t, instruments.Tracer("workorders"))
	require.NotNil(t, instruments.Meter("workorders"))
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("SERVICE_VERSION", "1.4.2")
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OTEL_TRACES_EXPORTER", "STDOUT")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	settings := SettingsFromEnv("workorders-api")
	require.Equal(t, "workorders-api", settings.ServiceName)
	require.Equal(t, "1.4.2", settings.ServiceVersion)
	require.Equal(t, "staging", settings.Environment)
	require.Equal(t, slog.LevelDebug, settings.LogLevel)
	require.Equal(t, ExporterStdout, settings.TracesExporter)
	require.False(t, settings.OTLPInsecure)
	require.InDelta(t, 0.25, settings.SampleRatio, 1e-9)
}

func TestSettingsFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"SERVICE_VERSION", "ENVIRONMENT", "LOG_LEVEL", "OTEL_TRACES_EXPORTER", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_TRACES_SAMPLER_ARG"} {
		t.Setenv(key, "")
	}
	settings := SettingsFromEnv("workorders-worker")
	require.Equal(t, "dev", settings.ServiceVersion)
	require.Equal(t, "local", settings.Environment)
	require.Equal(t, ExporterOTLP, settings.TracesExporter)
	require.True(t, settings.OTLPInsecure)
	require.Equal(t, 1.0, settings.SampleRatio)
}

func TestSampleRatioRejectsOutOfRange(t *testing.T) {
	require.Equal(t, 1.0, sampleRatio("1.5"))
	require.Equal(t, 1.0, sampleRatio("-0.1"))
	require.Equal(t, 1.0, sampleRatio("half"))
	require.Equal(t, 0.0, sampleRatio("0"))
}

func TestWorkOrderMetricsViewDropsUnboundedAttributes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := newMeterProvider(resource.Empty(), reader)
	counter, err := provider.Meter("test").Int64Counter("workorders.service.transitions")
	require.NoError(t, err)
	counter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("work_order.event", "accept"),
		attribute.String("work_order.id", "wo-1"),
	))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	attrs := sum.DataPoints[0].Attributes
	_, hasEvent := attrs.Value("work_order.event")
	_, hasID := attrs.Value("work_order.id")
	require.True(t, hasEvent)
	require.False(t, hasID)
}
