package gqlrequest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/printer"
	"github.com/graphql-go/graphql/language/source"
)

// AnonymousOperation names operations declared without a name.
const AnonymousOperation = "<anonymous>"

// Analysis is what the server learns about a request before executing it.
// Err records the first decode, parse, or operation selection failure; the
// GraphQL handler reports those to the client itself.
type Analysis struct {
	Envelope Envelope

	Operation     *ast.OperationDefinition
	OperationName string
	OperationType string
	OperationHash string

	FieldCount     int
	SelectionDepth int
	VariableCount  int

	Err error
}

// Analyze decodes and analyzes r.
func Analyze(r *http.Request) *Analysis {
	env, err := DecodeEnvelope(r)
	if err != nil {
		return &Analysis{Envelope: env, Err: fmt.Errorf("decode request: %w", err)}
	}
	return AnalyzeEnvelope(env)
}

// AnalyzeEnvelope parses env and describes the operation it selects.
func AnalyzeEnvelope(env Envelope) *Analysis {
	a := &Analysis{Envelope: env}
	if strings.TrimSpace(env.Query) == "" {
		return a
	}

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(env.Query), Name: "GraphQL request"}),
	})
	if err != nil {
		a.Err = err
		return a
	}

	fragments := map[string]*ast.FragmentDefinition{}
	var operations []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			operations = append(operations, d)
		case *ast.FragmentDefinition:
			if d.Name != nil {
				fragments[d.Name.Value] = d
			}
		}
	}

	op, err := selectOperation(operations, env.OperationName)
	if err != nil {
		a.Err = err
		return a
	}

	a.Operation = op
	a.OperationName = operationName(op)
	a.OperationType = string(op.Operation)
	a.VariableCount = len(op.VariableDefinitions)

	w := walker{fragments: fragments, expanded: map[string]bool{}}
	w.walk(op.SelectionSet, 1)
	a.FieldCount = w.fields
	a.SelectionDepth = w.depth

	a.OperationHash = hashOperation(op, fragments, w.spreads())
	return a
}

func selectOperation(ops []*ast.OperationDefinition, name string) (*ast.OperationDefinition, error) {
	if name != "" {
		for _, op := range ops {
			if op.Name != nil && op.Name.Value == name {
				return op, nil
			}
		}
		return nil, fmt.Errorf("unknown operation named %q", name)
	}
	switch len(ops) {
	case 0:
		return nil, errors.New("request does not include an operation")
	case 1:
		return ops[0], nil
	default:
		return nil, errors.New("operationName is required when request has multiple operations")
	}
}

func operationName(op *ast.OperationDefinition) string {
	if op.Name == nil || op.Name.Value == "" {
		return AnonymousOperation
	}
	return op.Name.Value
}

// walker counts fields and depth. Each fragment is expanded at most once,
// which also stops cyclic spreads.
type walker struct {
	fragments map[string]*ast.FragmentDefinition
	expanded  map[string]bool
	fields    int
	depth     int
}

func (w *walker) walk(set *ast.SelectionSet, depth int) {
	if set == nil {
		return
	}
	for _, sel := range set.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			w.fields++
			w.depth = max(w.depth, depth)
			w.walk(s.SelectionSet, depth+1)
		case *ast.InlineFragment:
			w.walk(s.SelectionSet, depth)
		case *ast.FragmentSpread:
			if s.Name == nil || w.expanded[s.Name.Value] {
				continue
			}
			w.expanded[s.Name.Value] = true
			if frag, ok := w.fragments[s.Name.Value]; ok {
				w.walk(frag.SelectionSet, depth)
			}
		}
	}
}

func (w *walker) spreads() []string {
	names := make([]string, 0, len(w.expanded))
	for name := range w.expanded {
		if _, ok := w.fragments[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// hashOperation fingerprints the printed operation plus the fragments it
// uses, so formatting and unused definitions do not change the hash.
func hashOperation(op *ast.OperationDefinition, fragments map[string]*ast.FragmentDefinition, used []string) string {
	defs := []ast.Node{op}
	for _, name := range used {
		defs = append(defs, fragments[name])
	}
	printed, _ := printer.Print(ast.NewDocument(&ast.Document{Definitions: defs})).(string)

	h := sha256.New()
	for _, part := range []string{printed, operationName(op)} {
		fmt.Fprintf(h, "%d:%s|", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type analysisKey struct{}

// WithAnalysis stores a in ctx.
func WithAnalysis(ctx context.Context, a *Analysis) context.Context {
	return context.WithValue(ctx, analysisKey{}, a)
}

// FromContext returns the analysis of the current request, or nil.
func FromContext(ctx context.Context) *Analysis {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(analysisKey{}).(*Analysis)
	return a
}
