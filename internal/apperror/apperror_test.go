package apperror

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"comics-graphql/internal/logging"

	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(buf *bytes.Buffer) context.Context {
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	return logging.WithLogger(context.Background(), logger)
}

func fieldError(err error, path ...interface{}) gqlerrors.FormattedError {
	fe := gqlerrors.FormatError(&gqlerrors.Error{Message: err.Error(), OriginalError: err})
	fe.Path = path
	return fe
}

func TestErrorHelpers(t *testing.T) {
	t.Run("with message keeps code and copies", func(t *testing.T) {
		err := ErrBadUserInput.WithMessage("limit must be between 1 and 100").WithField("limit")
		assert.Equal(t, CodeBadUserInput, err.Code)
		assert.Equal(t, "limit must be between 1 and 100", err.Error())
		assert.Equal(t, "invalid input", ErrBadUserInput.Message)
		assert.Equal(t, map[string]interface{}{"code": "BAD_USER_INPUT", "field": "limit"}, err.Extensions())
	})

	t.Run("errors.Is matches by code", func(t *testing.T) {
		err := ErrNotFound.WithMessage("series 7 references missing publisher 3")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrBadUserInput))
	})

	t.Run("internal wraps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := ErrInternal.WithInternal(cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("user facing only for input and not found", func(t *testing.T) {
		_, ok := UserFacing(ErrInternal.WithInternal(errors.New("boom")))
		assert.False(t, ok)
		_, ok = UserFacing(errors.New("plain"))
		assert.False(t, ok)
		appErr, ok := UserFacing(ErrNotFound.WithMessage("gone"))
		require.True(t, ok)
		assert.Equal(t, CodeNotFound, appErr.Code)
	})
}

func TestMarkLogged(t *testing.T) {
	cause := errors.New("timeout")
	marked := MarkLogged(cause)
	assert.True(t, IsLogged(marked))
	assert.ErrorIs(t, marked, cause)
	assert.Same(t, marked, MarkLogged(marked))
	assert.False(t, IsLogged(cause))
	assert.Nil(t, MarkLogged(nil))
}

func TestPresent(t *testing.T) {
	t.Run("user facing errors pass through with code", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := captureLogger(&buf)

		errs := Present(ctx, []gqlerrors.FormattedError{
			fieldError(ErrBadUserInput.WithMessage("search text exceeds 200 characters").WithField("name"), "allSeries"),
		}, PresentOptions{})

		require.Len(t, errs, 1)
		assert.Equal(t, "search text exceeds 200 characters", errs[0].Message)
		assert.Equal(t, "BAD_USER_INPUT", errs[0].Extensions["code"])
		assert.Equal(t, []interface{}{"allSeries"}, errs[0].Path)
		assert.Empty(t, buf.String())
	})

	t.Run("internal errors are masked and logged once", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := captureLogger(&buf)

		cause := errors.New("dial tcp: connection refused")
		errs := Present(ctx, []gqlerrors.FormattedError{
			fieldError(cause, "allSeries", "items", 0, "publisher"),
			fieldError(cause, "allSeries", "items", 1, "publisher"),
		}, PresentOptions{})

		require.Len(t, errs, 2)
		for _, fe := range errs {
			assert.Equal(t, "internal error", fe.Message)
			assert.Equal(t, "INTERNAL_ERROR", fe.Extensions["code"])
			assert.NotContains(t, fe.Extensions, "detail")
		}
		assert.Equal(t, 1, strings.Count(buf.String(), "internal error during GraphQL execution"))
	})

	t.Run("already logged errors are not logged again", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := captureLogger(&buf)

		cause := MarkLogged(errors.New("publisher fetch failed"))
		errs := Present(ctx, []gqlerrors.FormattedError{fieldError(cause, "series", "publisher")}, PresentOptions{})

		require.Len(t, errs, 1)
		assert.Equal(t, "INTERNAL_ERROR", errs[0].Extensions["code"])
		assert.Empty(t, buf.String())
	})

	t.Run("detail exposed outside production", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := captureLogger(&buf)

		errs := Present(ctx, []gqlerrors.FormattedError{
			fieldError(errors.New("Error 1146: table missing"), "issues"),
		}, PresentOptions{ExposeDetail: true})

		require.Len(t, errs, 1)
		assert.Equal(t, "internal error", errs[0].Message)
		assert.Equal(t, "Error 1146: table missing", errs[0].Extensions["detail"])
	})

	t.Run("request level errors become bad input", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := captureLogger(&buf)

		errs := Present(ctx, []gqlerrors.FormattedError{
			gqlerrors.FormatError(&gqlerrors.Error{Message: `Cannot query field "bogus" on type "Query".`}),
		}, PresentOptions{})

		require.Len(t, errs, 1)
		assert.Equal(t, `Cannot query field "bogus" on type "Query".`, errs[0].Message)
		assert.Equal(t, "BAD_USER_INPUT", errs[0].Extensions["code"])
		assert.Empty(t, buf.String())
	})
}

func TestCause(t *testing.T) {
	cause := ErrNotFound.WithMessage("missing")
	inner := gqlerrors.FormatError(cause)
	outer := gqlerrors.FormatError(&gqlerrors.Error{Message: inner.Message, OriginalError: inner})

	assert.Same(t, cause, Cause(outer))
	assert.Nil(t, Cause(gqlerrors.FormatError(&gqlerrors.Error{Message: "Syntax Error: Unexpected Name"})))
}
