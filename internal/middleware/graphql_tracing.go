package middleware

import (
	"log/slog"
	"net/http"

	"comics-graphql/internal/logging"
	"comics-graphql/internal/observability"

	"go.opentelemetry.io/otel"
)

// GraphQLTracingMiddleware wraps GraphQL execution in a span describing the
// operation. Requests without a query document pass through untraced.
func GraphQLTracingMiddleware() func(http.Handler) http.Handler {
	tracer := otel.Tracer("comics-graphql/graphql")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			analysis := analysisFor(r)
			if analysis.Envelope.Query == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := tracer.Start(r.Context(), "graphql.execute")
			defer span.End()

			if sc := span.SpanContext(); sc.IsValid() {
				ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithFields(
					slog.String("trace_id", sc.TraceID().String()),
					slog.String("span_id", sc.SpanID().String()),
				))
			}
			if span.IsRecording() {
				span.SetAttributes(observability.GraphQLSpanAttributes(analysis)...)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
