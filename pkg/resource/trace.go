package resource

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for resource loaders.
const defaultTracerName = "ripple"

// Traced wraps a loader in an OpenTelemetry span. The span covers the
// loader call, records non-cancellation failures, and marks cancellation
// with an attribute instead of an error status (cancellation is control
// flow for resources, not a failure).
//
// The tracer comes from the global tracer provider; configure it in main()
// before starting fetches.
//
// Example:
//
//	r := resource.New(resource.Traced("users.list", fetchUsers))
func Traced[T any](spanName string, loader Loader[T]) Loader[T] {
	tracer := otel.Tracer(defaultTracerName)

	return func(ctx context.Context) (T, error) {
		ctx, span := tracer.Start(
			ctx,
			spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("ripple.loader", spanName)),
		)
		defer span.End()

		value, err := loader(ctx)

		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(err, context.Canceled):
			span.SetAttributes(attribute.Bool("ripple.canceled", true))
			span.SetStatus(codes.Ok, "")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return value, err
	}
}

// keyString formats a key for use as a span attribute.
func keyString[K comparable](key K) string {
	return fmt.Sprintf("%v", key)
}

// TracedKeyed is Traced for keyed loaders; the key is recorded as a span
// attribute.
func TracedKeyed[K comparable, T any](spanName string, loader KeyedLoader[K, T]) KeyedLoader[K, T] {
	tracer := otel.Tracer(defaultTracerName)

	return func(ctx context.Context, key K) (T, error) {
		ctx, span := tracer.Start(
			ctx,
			spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("ripple.loader", spanName),
				attribute.String("ripple.key", keyString(key)),
			),
		)
		defer span.End()

		value, err := loader(ctx, key)

		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(err, context.Canceled):
			span.SetAttributes(attribute.Bool("ripple.canceled", true))
			span.SetStatus(codes.Ok, "")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return value, err
	}
}
