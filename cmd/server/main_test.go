package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"comics-graphql/internal/config"
)

func TestPrintVersion(t *testing.T) {
	origVersion, origCommit := Version, Commit
	Version, Commit = "1.2.0", "abc123"
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	var buf bytes.Buffer
	printVersion(&buf)
	if got := buf.String(); got != "comics-graphql 1.2.0 (abc123)\n" {
		t.Fatalf("unexpected version line %q", got)
	}
}

func TestReportValidation(t *testing.T) {
	tests := []struct {
		name     string
		result   *config.ValidationResult
		wantErr  bool
		wantLogs []string
	}{
		{
			name:   "clean",
			result: &config.ValidationResult{},
		},
		{
			name: "warnings only",
			result: &config.ValidationResult{
				Warnings: []config.ValidationWarning{{Field: "server.graphql_default_limit", Message: "above page cap"}},
			},
			wantLogs: []string{"configuration warning", "server.graphql_default_limit"},
		},
		{
			name: "errors",
			result: &config.ValidationResult{
				Errors: []config.ValidationError{{Field: "server.port", Message: "must be between 1 and 65535"}},
			},
			wantErr:  true,
			wantLogs: []string{"configuration error", "server.port"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			err := reportValidation(logger, tt.result)
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, errInvalidConfig) {
				t.Fatalf("expected errInvalidConfig, got %v", err)
			}
			for _, want := range tt.wantLogs {
				if !strings.Contains(buf.String(), want) {
					t.Fatalf("expected log output to contain %q, got %s", want, buf.String())
				}
			}
		})
	}
}
