// Package resolver declares the GraphQL schema of the catalog and resolves
// its fields. Root fields read through the store; relationship fields only
// ever go through the request's loader registry, so sibling lookups are
// batched instead of issuing one query per parent.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"comics-graphql/internal/catalog"
	"comics-graphql/internal/loaders"
	"comics-graphql/internal/pagination"
	"comics-graphql/internal/planner"
	"comics-graphql/internal/store"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Reader is the read surface root fields need.
type Reader interface {
	Publisher(ctx context.Context, id int) (*catalog.Publisher, bool, error)
	Series(ctx context.Context, id int) (*catalog.Series, bool, error)
	Issue(ctx context.Context, id int) (*catalog.Issue, bool, error)
	Story(ctx context.Context, id int) (*catalog.Story, bool, error)

	ListPublishers(ctx context.Context, f store.PublisherFilter, w pagination.Window) (pagination.Connection[*catalog.Publisher], error)
	ListSeries(ctx context.Context, f store.SeriesFilter, w pagination.Window) (pagination.Connection[*catalog.Series], error)
	ListIssues(ctx context.Context, f store.IssueFilter, w pagination.Window) (pagination.Connection[*catalog.Issue], error)
	ListStories(ctx context.Context, f store.StoryFilter, w pagination.Window) (pagination.Connection[*catalog.Story], error)
	ListCountries(ctx context.Context, f store.NameFilter, w pagination.Window) (pagination.Connection[*catalog.Country], error)
	ListLanguages(ctx context.Context, f store.NameFilter, w pagination.Window) (pagination.Connection[*catalog.Language], error)
	ListStoryTypes(ctx context.Context, w pagination.Window) (pagination.Connection[*catalog.StoryType], error)
}

// errNoRegistry means the operation boundary did not install a registry.
var errNoRegistry = errors.New("no loader registry in request context")

// Resolver builds the schema and holds what its resolvers share.
type Resolver struct {
	reader       Reader
	limits       *planner.PlanLimits
	defaultLimit int
}

// NewResolver creates a resolver. defaultLimit is the page size used when a
// list field gets no limit argument; it is clamped into the allowed range.
// limits, when non-nil, bounds the depth and estimated rows of each root field.
func NewResolver(reader Reader, limits *planner.PlanLimits, defaultLimit int) *Resolver {
	return &Resolver{
		reader:       reader,
		limits:       limits,
		defaultLimit: pagination.ClampDefault(defaultLimit),
	}
}

// BuildGraphQLSchema declares every type and root field.
func (r *Resolver) BuildGraphQLSchema() (graphql.Schema, error) {
	t := r.buildTypes()

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: r.rootFields(t),
		}),
	})
}

func registryFrom(ctx context.Context) (*loaders.Registry, error) {
	reg, ok := loaders.FromContext(ctx)
	if !ok {
		return nil, errNoRegistry
	}
	return reg, nil
}

// checkLimits applies the configured cost limits to the current root field.
func (r *Resolver) checkLimits(p graphql.ResolveParams) error {
	if r.limits == nil {
		return nil
	}
	field := firstFieldAST(p.Info.FieldASTs)
	cost := planner.EstimateCost(field, p.Args, r.defaultLimit)
	if err := planner.ValidateLimits(cost, *r.limits); err != nil {
		return badInput(err)
	}
	return nil
}

func firstFieldAST(fields []*ast.Field) *ast.Field {
	if len(fields) == 0 {
		return nil
	}
	return fields[0]
}

func sourceAs[T any](p graphql.ResolveParams) (T, error) {
	v, ok := p.Source.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: unexpected source type %T", p.Info.FieldName, p.Source)
	}
	return v, nil
}
