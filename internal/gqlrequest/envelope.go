// Package gqlrequest decodes a GraphQL HTTP request once and derives the
// operation metadata used for logging, tracing, and metrics.
package gqlrequest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
)

// Envelope is the transport-level payload of a GraphQL request.
type Envelope struct {
	Method        string
	Query         string
	OperationName string
	Variables     json.RawMessage
}

// DocumentSize is the byte length of the query document.
func (e Envelope) DocumentSize() int {
	return len(e.Query)
}

// DecodeEnvelope reads the query, operation name, and variables from r. A
// POST body is restored after reading so the GraphQL handler can decode it
// again.
func DecodeEnvelope(r *http.Request) (Envelope, error) {
	if r == nil {
		return Envelope{}, errors.New("request is nil")
	}
	env := Envelope{Method: r.Method}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		env.Query = q.Get("query")
		env.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			env.Variables = json.RawMessage(v)
		}
		return env, nil
	case http.MethodPost:
	default:
		return env, nil
	}
	if r.Body == nil {
		return env, nil
	}

	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return env, err
	}

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/graphql" {
		env.Query = string(body)
		return env, nil
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return env, nil
	}
	var payload struct {
		Query         string          `json:"query"`
		OperationName string          `json:"operationName"`
		Variables     json.RawMessage `json:"variables"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return env, err
	}
	env.Query = payload.Query
	env.OperationName = payload.OperationName
	if v := bytes.TrimSpace(payload.Variables); len(v) > 0 && !bytes.Equal(v, []byte("null")) {
		env.Variables = payload.Variables
	}
	return env, nil
}
