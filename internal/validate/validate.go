// Package validate checks list-query arguments before any storage access.
// Every failure is an apperror with code BAD_USER_INPUT.
package validate

import (
	"regexp"
	"unicode/utf8"

	"comics-graphql/internal/apperror"
)

const (
	// MaxSearchLength is the longest accepted free-text search, in characters.
	MaxSearchLength = 200

	MinLimit = 1
	MaxLimit = 100
)

var datePattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)

// SearchText rejects search terms longer than MaxSearchLength characters.
// Input is never truncated.
func SearchText(field, value string) error {
	if n := utf8.RuneCountInString(value); n > MaxSearchLength {
		return apperror.ErrBadUserInput.
			WithMessagef("%s must be at most %d characters (got %d)", field, MaxSearchLength, n).
			WithField(field)
	}
	return nil
}

// Date accepts only YYYY-MM-DD. Values such as "02/01/1986" or "1986" are
// rejected rather than coerced.
func Date(field, value string) error {
	if !datePattern.MatchString(value) {
		return apperror.ErrBadUserInput.
			WithMessagef("%s must be a date in YYYY-MM-DD format", field).
			WithField(field)
	}
	return nil
}

// Limit checks an explicitly supplied page size.
func Limit(field string, value int) error {
	if value < MinLimit || value > MaxLimit {
		return apperror.ErrBadUserInput.
			WithMessagef("%s must be between %d and %d", field, MinLimit, MaxLimit).
			WithField(field)
	}
	return nil
}

// Offset checks an explicitly supplied offset.
func Offset(field string, value int) error {
	if value < 0 {
		return apperror.ErrBadUserInput.
			WithMessagef("%s must not be negative", field).
			WithField(field)
	}
	return nil
}

// ID checks a primary or foreign key argument.
func ID(field string, value int) error {
	if value < 1 {
		return apperror.ErrBadUserInput.
			WithMessagef("%s must be a positive integer", field).
			WithField(field)
	}
	return nil
}

// Year checks a four digit year argument.
func Year(field string, value int) error {
	if value < 1000 || value > 9999 {
		return apperror.ErrBadUserInput.
			WithMessagef("%s must be a four digit year", field).
			WithField(field)
	}
	return nil
}

// Code checks short ISO-style codes such as country and language codes.
func Code(field, value string) error {
	if n := utf8.RuneCountInString(value); n < 2 || n > 8 {
		return apperror.ErrBadUserInput.
			WithMessagef("%s must be between 2 and 8 characters", field).
			WithField(field)
	}
	return nil
}
