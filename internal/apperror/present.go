package apperror

import (
	"context"
	"log/slog"
	"reflect"

	"comics-graphql/internal/logging"

	"github.com/graphql-go/graphql/gqlerrors"
)

// PresentOptions controls how internal errors are rendered to clients.
type PresentOptions struct {
	// ExposeDetail attaches the original error text as extensions.detail.
	// Only enable outside production.
	ExposeDetail bool
}

// Present rewrites the errors of one GraphQL result before they leave the
// process. Coded user-facing errors pass through unchanged. Request-level
// parse and validation failures (no response path) become BAD_USER_INPUT.
// Everything else is logged once per distinct underlying error and replaced
// with a generic INTERNAL_ERROR.
func Present(ctx context.Context, errs []gqlerrors.FormattedError, opts PresentOptions) []gqlerrors.FormattedError {
	if len(errs) == 0 {
		return errs
	}

	logger := logging.FromContext(ctx)
	seen := newIdentitySet()
	out := make([]gqlerrors.FormattedError, 0, len(errs))

	for _, fe := range errs {
		cause := Cause(fe)

		if appErr, ok := UserFacing(cause); ok {
			out = append(out, gqlerrors.FormattedError{
				Message:    appErr.Message,
				Locations:  fe.Locations,
				Path:       fe.Path,
				Extensions: appErr.Extensions(),
			})
			continue
		}

		if cause == nil && len(fe.Path) == 0 {
			out = append(out, gqlerrors.FormattedError{
				Message:    fe.Message,
				Locations:  fe.Locations,
				Extensions: map[string]interface{}{"code": string(CodeBadUserInput)},
			})
			continue
		}

		detail := fe.Message
		if cause != nil {
			detail = cause.Error()
		}

		if seen.add(cause) && !IsLogged(cause) {
			logger.Error("internal error during GraphQL execution",
				slog.String("error", detail),
				slog.Any("path", fe.Path),
			)
		}

		ext := map[string]interface{}{"code": string(CodeInternal)}
		if opts.ExposeDetail {
			ext["detail"] = detail
		}
		out = append(out, gqlerrors.FormattedError{
			Message:    ErrInternal.Message,
			Locations:  fe.Locations,
			Path:       fe.Path,
			Extensions: ext,
		})
	}

	return out
}

// Cause digs through the graphql-go error wrappers and returns the error the
// resolver originally produced, or nil when graphql-go raised it itself.
func Cause(fe gqlerrors.FormattedError) error {
	var cause error
	next := fe.OriginalError()
	for depth := 0; next != nil && depth < 8; depth++ {
		switch e := next.(type) {
		case gqlerrors.FormattedError:
			next = e.OriginalError()
		case *gqlerrors.FormattedError:
			next = e.OriginalError()
		case *gqlerrors.Error:
			next = e.OriginalError
		case gqlerrors.Error:
			next = e.OriginalError
		default:
			cause = e
			next = nil
		}
	}
	return cause
}

// identitySet remembers error values by identity. Non-comparable dynamic
// types cannot be map keys and are always treated as new.
type identitySet struct {
	items map[error]struct{}
}

func newIdentitySet() *identitySet {
	return &identitySet{items: map[error]struct{}{}}
}

func (s *identitySet) add(err error) bool {
	if err == nil {
		return true
	}
	if !reflect.TypeOf(err).Comparable() {
		return true
	}
	if _, ok := s.items[err]; ok {
		return false
	}
	s.items[err] = struct{}{}
	return true
}
