// Package observability sets up tracing export and owns the domain metrics
// of the chat core.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-mindcare-backend/internal/config"
)

// ServiceNamespace groups every MindCare service in the tracing backend.
const ServiceNamespace = "mindcare"

// Resource attribute keys describing how this chat instance is wired.
const (
	AttrLLMProvider   = attribute.Key("mindcare.llm.provider")
	AttrHistoryDriver = attribute.Key("mindcare.history.driver")
)

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = serviceResource
)

// ChatAttributes returns the resource attributes for the chat wiring in cfg.
// Empty values are left out.
func ChatAttributes(cfg config.Config) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if cfg.LLM.Provider != "" {
		attrs = append(attrs, AttrLLMProvider.String(cfg.LLM.Provider))
	}
	if cfg.History.Driver != "" {
		attrs = append(attrs, AttrHistoryDriver.String(cfg.History.Driver))
	}
	return attrs
}

func serviceResource(ctx context.Context, serviceName, version string, extra ...attribute.KeyValue) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceNamespace(ServiceNamespace),
		semconv.ServiceVersion(version),
	}, extra...)
	return resource.New(
		ctx,
		resource.WithAttributes(attrs...),
		resource.WithProcessRuntimeName(),
		resource.WithProcessRuntimeVersion(),
	)
}

// SetupOTel exports chat traces over OTLP/gRPC and returns a shutdown
// function. extra is added to the service resource, usually ChatAttributes.
//
// With cfg.Enabled false nothing is installed and shutdown is a no-op. The
// global provider and propagator are swapped only after the exporter and
// resource are built, so a failed setup keeps the previous ones.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string, extra ...attribute.KeyValue) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(exporterOptions(cfg)...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version, extra...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(chatSampler(cfg.SampleRatio)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func exporterOptions(cfg config.OTELConfig) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		return append(opts, otlptracegrpc.WithInsecure())
	}
	return append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
}

// chatSampler honours an upstream sampling decision and samples new root
// spans by ratio. Ratios at or past the bounds use the fixed samplers so
// that 1 keeps every exchange and 0 drops them all.
func chatSampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch r := clampRatio(ratio); r {
	case 1:
		root = sdktrace.AlwaysSample()
	case 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(r)
	}
	return sdktrace.ParentBased(root)
}

// clampRatio bounds a sample ratio to [0,1].
func clampRatio(r float64) float64 {
	return min(max(r, 0), 1)
}
