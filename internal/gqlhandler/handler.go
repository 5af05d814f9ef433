// Package gqlhandler serves GraphQL operations over HTTP. Every operation
// runs with its own loader registry, and its errors are rewritten into the
// public error shape before the response is written.
package gqlhandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"comics-graphql/internal/apperror"
	"comics-graphql/internal/loaders"
	"comics-graphql/internal/logging"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config configures a Handler.
type Config struct {
	Schema *graphql.Schema
	Source loaders.Source

	// LoaderWait bounds how long a loader batch may stay open.
	LoaderWait time.Duration
	// OperationTimeout cancels storage work of an operation that runs
	// longer. Zero disables it.
	OperationTimeout time.Duration
	// ExposeErrorDetail attaches the text of internal errors to responses.
	ExposeErrorDetail bool
	GraphiQL          bool
	Pretty            bool
}

// Handler executes GraphQL operations.
type Handler struct {
	cfg Config
	ide http.Handler
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{cfg: cfg}
	if cfg.GraphiQL {
		h.ide = handler.New(&handler.Config{
			Schema:   cfg.Schema,
			Pretty:   cfg.Pretty,
			GraphiQL: true,
		})
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts := handler.NewRequestOptions(r)
	if h.ide != nil && opts.Query == "" && wantsHTML(r) {
		h.ide.ServeHTTP(w, r)
		return
	}

	result := h.Execute(r.Context(), opts.Query, opts.OperationName, opts.Variables)
	h.write(w, r, result)
}

// Execute runs one operation under a fresh loader registry and returns the
// result with its errors in public form.
func (h *Handler) Execute(ctx context.Context, query, operationName string, variables map[string]interface{}) *graphql.Result {
	if h.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.OperationTimeout)
		defer cancel()
	}

	reg := loaders.NewRegistry(h.cfg.Source, loaders.Options{Wait: h.cfg.LoaderWait})
	defer reg.Close()
	ctx = loaders.WithRegistry(ctx, reg)

	result := graphql.Do(graphql.Params{
		Schema:         *h.cfg.Schema,
		RequestString:  query,
		OperationName:  operationName,
		VariableValues: variables,
		Context:        ctx,
	})

	stats := reg.Stats()
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("dataloader.hits", stats.Hits()),
		attribute.Int64("dataloader.misses", stats.Misses()),
		attribute.Int64("dataloader.dispatches", stats.Dispatches()),
		attribute.Int64("dataloader.failures", stats.Failures()),
	)
	logging.FromContext(ctx).Debug("operation finished",
		slog.Int64("loader_dispatches", stats.Dispatches()),
		slog.Int64("loader_hits", stats.Hits()),
		slog.Int("errors", len(result.Errors)),
	)

	result.Errors = apperror.Present(ctx, result.Errors, apperror.PresentOptions{
		ExposeDetail: h.cfg.ExposeErrorDetail,
	})
	return result
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, result *graphql.Result) {
	var (
		body []byte
		err  error
	)
	if h.cfg.Pretty {
		body, err = json.MarshalIndent(result, "", "  ")
	} else {
		body, err = json.Marshal(result)
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to encode GraphQL response", slog.String("error", err.Error()))
		http.Error(w, `{"errors":[{"message":"internal error","extensions":{"code":"INTERNAL_ERROR"}}]}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if _, raw := r.URL.Query()["raw"]; raw {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
