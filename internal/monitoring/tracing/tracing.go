package tracing

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"geminicli2api-go/internal/constants"
)

// 未配置 OTEL_EXPORTER_OTLP_ENDPOINT 时本包整体退化为空操作。

var noopShutdown = func(context.Context) error { return nil }

// Setup wires an OTLP gRPC exporter when OTEL_EXPORTER_OTLP_ENDPOINT is set
// and returns the provider shutdown hook. Without an endpoint the returned
// hook is a no-op and spans go nowhere.
func Setup(ctx context.Context) (func(context.Context) error, error) {
	endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if endpoint == "" {
		return noopShutdown, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if plaintextExporter() {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return noopShutdown, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", constants.AppName),
			attribute.String("service.version", constants.AppVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithFromEnv(),
	)
	if err != nil {
		return noopShutdown, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return provider.Shutdown, nil
}

// plaintextExporter defaults to true; the usual deployment puts the collector
// next to the gateway.
func plaintextExporter() bool {
	v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"))
	return v == "" || v == "1" || strings.EqualFold(v, "true")
}

// StartAction opens a client span for one Code Assist v1internal call. For
// streaming actions the span covers the call up to response headers, not the
// body relay.
func StartAction(ctx context.Context, action string) (context.Context, trace.Span) {
	return otel.Tracer(constants.AppName).Start(ctx, "codeassist."+action,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("codeassist.action", action)),
	)
}

// EndAction records the outcome of a span opened by StartAction and ends it.
// status 0 means no response was obtained.
func EndAction(span trace.Span, status, attempts int, err error) {
	if attempts > 0 {
		span.SetAttributes(attribute.Int("codeassist.attempts", attempts))
	}
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= 400:
		span.SetStatus(codes.Error, "upstream status "+strconv.Itoa(status))
	}
	span.End()
}
