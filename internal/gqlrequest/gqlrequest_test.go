package gqlrequest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeGET(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, `/graphql?query=%7B%20publishers%20%7B%20totalCount%20%7D%20%7D&operationName=Q&variables=%7B%22a%22%3A1%7D`, nil)

	env, err := DecodeEnvelope(req)
	require.NoError(t, err)
	assert.Equal(t, "{ publishers { totalCount } }", env.Query)
	assert.Equal(t, "Q", env.OperationName)
	assert.JSONEq(t, `{"a":1}`, string(env.Variables))
	assert.Equal(t, len(env.Query), env.DocumentSize())
}

func TestDecodeEnvelopeJSONRewindsBody(t *testing.T) {
	body := `{"query":"query Q($id: Int!) { issue(id: $id) { number } }","operationName":"Q","variables":{"id":3}}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	env, err := DecodeEnvelope(req)
	require.NoError(t, err)
	assert.Equal(t, "Q", env.OperationName)
	assert.JSONEq(t, `{"id":3}`, string(env.Variables))

	rewound, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(rewound))
}

func TestDecodeEnvelopeGraphQLBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{ countries { totalCount } }"))
	req.Header.Set("Content-Type", "application/graphql; charset=utf-8")

	env, err := DecodeEnvelope(req)
	require.NoError(t, err)
	assert.Equal(t, "{ countries { totalCount } }", env.Query)
}

func TestDecodeEnvelopeNullVariables(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ a }","variables":null}`))

	env, err := DecodeEnvelope(req)
	require.NoError(t, err)
	assert.Nil(t, env.Variables)
}

func TestAnalyzeBadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":`))

	a := Analyze(req)
	require.Error(t, a.Err)
	assert.Contains(t, a.Err.Error(), "decode request")
	assert.Empty(t, a.OperationType)
}

func TestAnalyzeEnvelope(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		opName    string
		wantName  string
		wantType  string
		wantField int
		wantDepth int
		wantVars  int
		wantErr   bool
	}{
		{
			name:      "anonymous query",
			query:     `{ allSeries { items { name publisher { name } } } }`,
			wantName:  AnonymousOperation,
			wantType:  "query",
			wantField: 5,
			wantDepth: 4,
		},
		{
			name:      "named with variables",
			query:     `query Issue($id: Int!) { issue(id: $id) { number } }`,
			wantName:  "Issue",
			wantType:  "query",
			wantField: 2,
			wantDepth: 2,
			wantVars:  1,
		},
		{
			name: "fragments count once",
			query: `query { a: series(id: 1) { ...S } b: series(id: 2) { ...S } }
				fragment S on Series { name issueCount }`,
			wantName:  AnonymousOperation,
			wantType:  "query",
			wantField: 4,
			wantDepth: 2,
		},
		{
			name:      "selected by name",
			query:     `query A { countries { totalCount } } query B { languages { totalCount } }`,
			opName:    "B",
			wantName:  "B",
			wantType:  "query",
			wantField: 2,
			wantDepth: 2,
		},
		{name: "ambiguous", query: `query A { a } query B { b }`, wantErr: true},
		{name: "unknown name", query: `query A { a }`, opName: "Z", wantErr: true},
		{name: "syntax error", query: `query { issue(`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeEnvelope(Envelope{Query: tt.query, OperationName: tt.opName})
			if tt.wantErr {
				require.Error(t, a.Err)
				assert.Nil(t, a.Operation)
				return
			}
			require.NoError(t, a.Err)
			assert.Equal(t, tt.wantName, a.OperationName)
			assert.Equal(t, tt.wantType, a.OperationType)
			assert.Equal(t, tt.wantField, a.FieldCount)
			assert.Equal(t, tt.wantDepth, a.SelectionDepth)
			assert.Equal(t, tt.wantVars, a.VariableCount)
			assert.Len(t, a.OperationHash, 64)
		})
	}
}

func TestOperationHashIgnoresFormatting(t *testing.T) {
	a := AnalyzeEnvelope(Envelope{Query: `{ issues { totalCount } }`})
	b := AnalyzeEnvelope(Envelope{Query: "{\n  issues {\n    totalCount\n  }\n}\n"})
	c := AnalyzeEnvelope(Envelope{Query: `{ stories { totalCount } }`})

	assert.Equal(t, a.OperationHash, b.OperationHash)
	assert.NotEqual(t, a.OperationHash, c.OperationHash)
}

func TestEmptyQueryIsNotAnError(t *testing.T) {
	a := AnalyzeEnvelope(Envelope{})
	assert.NoError(t, a.Err)
	assert.Nil(t, a.Operation)
}

func TestAnalysisContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	a := &Analysis{OperationName: "Q"}
	assert.Same(t, a, FromContext(WithAnalysis(context.Background(), a)))
}
