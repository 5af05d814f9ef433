package observability

import (
	"context"
	"log/slog"

	"comics-graphql/internal/gqlrequest"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GraphQLSpanAttributes describes the analyzed operation as span attributes.
func GraphQLSpanAttributes(a *gqlrequest.Analysis) []attribute.KeyValue {
	if a == nil {
		return nil
	}
	attrs := make([]attribute.KeyValue, 0, 8)
	if a.Envelope.OperationName != "" {
		attrs = append(attrs, attribute.String("graphql.operation.requested_name", a.Envelope.OperationName))
	}
	if size := a.Envelope.DocumentSize(); size > 0 {
		attrs = append(attrs, attribute.Int("graphql.document.size_bytes", size))
	}
	if a.Operation == nil {
		return attrs
	}
	return append(attrs,
		attribute.String("graphql.operation.name", a.OperationName),
		attribute.String("graphql.operation.type", a.OperationType),
		attribute.String("graphql.operation.hash", a.OperationHash),
		attribute.Int("graphql.query.field_count", a.FieldCount),
		attribute.Int("graphql.query.depth", a.SelectionDepth),
		attribute.Int("graphql.query.variable_count", a.VariableCount),
	)
}

// GraphQLLogFields describes the analyzed operation as log fields, plus the
// trace id when ctx carries a valid span.
func GraphQLLogFields(ctx context.Context, a *gqlrequest.Analysis) []any {
	fields := make([]any, 0, 4)
	if a != nil && a.Operation != nil {
		fields = append(fields,
			slog.String("operation_name", a.OperationName),
			slog.String("operation_type", a.OperationType),
			slog.String("operation_hash", a.OperationHash),
		)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields, slog.String("trace_id", sc.TraceID().String()))
	}
	return fields
}
