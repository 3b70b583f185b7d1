package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"rootstofarm.com/market/go-api/pkg/global"
)

const ServiceName = "roots-to-farm-api"

// NewProvider builds a tracer provider that writes finished spans to w.
func NewProvider(w io.Writer, version string, opts ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, errors.Wrap(err, "create stdout trace exporter")
	}
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String(version),
		)),
	}, opts...)
	return sdktrace.NewTracerProvider(opts...), nil
}

// Setup installs the global tracer provider and propagator. With tracing
// disabled the otel no-op provider stays in place.
func Setup(cfg *global.Config, version string) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	if !cfg.TracingStdout {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := NewProvider(os.Stdout, version)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	log.Info("Tracing to stdout enabled")
	return tp.Shutdown, nil
}
