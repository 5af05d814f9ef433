package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"comics-graphql/internal/observability"
)

// GraphQLMetricsMiddleware records request metrics for GraphQL POSTs and
// makes the instruments available to the loaders through the context.
func GraphQLMetricsMiddleware(metrics *observability.GraphQLMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// GraphiQL page loads are not operations.
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := observability.ContextWithGraphQLMetrics(r.Context(), metrics)
			r = r.WithContext(ctx)
			metrics.IncrementActiveRequests(ctx)
			defer metrics.DecrementActiveRequests(ctx)

			operationType := "unknown"
			if a := analysisFor(r); a.OperationType != "" {
				operationType = a.OperationType
			}

			var body []byte
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, body: &body}
			start := time.Now()
			next.ServeHTTP(rec, r)

			hasErrors := rec.status >= 400 || responseHasErrors(body)
			metrics.RecordRequest(ctx, time.Since(start), hasErrors, operationType)
		})
	}
}

func responseHasErrors(body []byte) bool {
	var payload struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &payload); err != nil {
		return false
	}
	return len(payload.Errors) > 0
}
