package middleware

import (
	"net/http"

	"comics-graphql/internal/gqlrequest"
	"comics-graphql/internal/logging"
	"comics-graphql/internal/observability"
)

// GraphQLRequestAnalysisMiddleware analyzes the GraphQL request once and
// stores the result in the request context. The request logger gains the
// operation's name, type, and hash.
func GraphQLRequestAnalysisMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			analysis := gqlrequest.Analyze(r)
			ctx := gqlrequest.WithAnalysis(r.Context(), analysis)

			if fields := observability.GraphQLLogFields(ctx, analysis); len(fields) > 0 {
				ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithFields(fields...))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func analysisFor(r *http.Request) *gqlrequest.Analysis {
	if a := gqlrequest.FromContext(r.Context()); a != nil {
		return a
	}
	return gqlrequest.Analyze(r)
}
