package obs

import (
	"context"
	"log/slog"
	"os"

	"github.com/easyops/legalqa-go/pkg/core/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Provider 可观测性提供者
//
// 管理追踪与日志的生命周期。
type Provider struct {
	tracer   Tracer
	logger   Logger
	shutdown []func(context.Context) error
}

// NewProvider 创建可观测性提供者
func NewProvider(ctx context.Context, cfg config.ObservabilityConfig) (*Provider, error) {
	p := &Provider{
		logger: NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil))),
	}

	if !cfg.Enabled {
		p.tracer = NewNoopTracer()
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := createTraceExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p.shutdown = append(p.shutdown, tp.Shutdown)
	p.tracer = NewTracer(tp.Tracer(cfg.ServiceName))

	return p, nil
}

// createTraceExporter 创建追踪导出器
//
// 配置了端点时使用 OTLP HTTP，否则输出到 stdout。
func createTraceExporter(ctx context.Context, cfg config.ObservabilityConfig) (sdktrace.SpanExporter, error) {
	if cfg.TracerEndpoint != "" {
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.TracerEndpoint),
			otlptracehttp.WithInsecure(),
		)
	}
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

// Tracer 返回追踪器
func (p *Provider) Tracer() Tracer {
	return p.tracer
}

// Logger 返回日志器
func (p *Provider) Logger() Logger {
	return p.logger
}

// Shutdown 关闭所有导出器
func (p *Provider) Shutdown(ctx context.Context) error {
	var lastErr error
	for _, fn := range p.shutdown {
		if err := fn(ctx); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
