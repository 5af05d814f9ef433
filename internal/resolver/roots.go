package resolver

import (
	"context"

	"comics-graphql/internal/catalog"
	"comics-graphql/internal/dataloader"
	"comics-graphql/internal/loaders"
	"comics-graphql/internal/pagination"
	"comics-graphql/internal/store"
	"comics-graphql/internal/validate"

	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/attribute"
)

func (r *Resolver) rootFields(t *schemaTypes) graphql.Fields {
	idArg := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
	}
	str := func() *graphql.ArgumentConfig { return &graphql.ArgumentConfig{Type: graphql.String} }
	num := func() *graphql.ArgumentConfig { return &graphql.ArgumentConfig{Type: graphql.Int} }

	return graphql.Fields{
		"publisher": &graphql.Field{
			Type: t.publisher,
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return lookup(r, p, "publisher", r.reader.Publisher, func(reg *loaders.Registry) *dataloader.Loader[int, *catalog.Publisher] {
					return reg.PublisherByID
				})
			},
		},
		"series": &graphql.Field{
			Type: t.series,
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return lookup(r, p, "series", r.reader.Series, func(reg *loaders.Registry) *dataloader.Loader[int, *catalog.Series] {
					return reg.SeriesByID
				})
			},
		},
		"issue": &graphql.Field{
			Type: t.issue,
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return lookup(r, p, "issue", r.reader.Issue, func(reg *loaders.Registry) *dataloader.Loader[int, *catalog.Issue] {
					return reg.IssueByID
				})
			},
		},
		"story": &graphql.Field{
			Type: t.story,
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return lookup[*catalog.Story](r, p, "story", r.reader.Story, nil)
			},
		},

		"publishers": &graphql.Field{
			Type: t.publisherConnection,
			Args: withWindow(graphql.FieldConfigArgument{
				"name":        str(),
				"countryCode": str(),
			}),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a := &argReader{args: p.Args}
				f := store.PublisherFilter{
					Name:        a.search("name"),
					CountryCode: a.code("countryCode"),
				}
				return listRoot(r, p, "publishers", a, func(ctx context.Context, w pagination.Window) (interface{}, error) {
					return r.reader.ListPublishers(ctx, f, w)
				})
			},
		},
		"allSeries": &graphql.Field{
			Type: t.seriesConnection,
			Args: withWindow(graphql.FieldConfigArgument{
				"name":         str(),
				"publisherId":  num(),
				"languageCode": str(),
				"countryCode":  str(),
				"yearBegan":    num(),
				"isCurrent":    &graphql.ArgumentConfig{Type: graphql.Boolean},
			}),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a := &argReader{args: p.Args}
				f := store.SeriesFilter{
					Name:         a.search("name"),
					PublisherID:  a.id("publisherId"),
					LanguageCode: a.code("languageCode"),
					CountryCode:  a.code("countryCode"),
					YearBegan:    a.year("yearBegan"),
					IsCurrent:    a.optBool("isCurrent"),
				}
				return listRoot(r, p, "allSeries", a, func(ctx context.Context, w pagination.Window) (interface{}, error) {
					return r.reader.ListSeries(ctx, f, w)
				})
			},
		},
		"issues": &graphql.Field{
			Type: t.issueConnection,
			Args: withWindow(graphql.FieldConfigArgument{
				"seriesId":    num(),
				"number":      str(),
				"keyDate":     str(),
				"keyDateFrom": str(),
				"keyDateTo":   str(),
				"onSaleDate":  str(),
			}),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a := &argReader{args: p.Args}
				f := store.IssueFilter{
					SeriesID:    a.id("seriesId"),
					Number:      a.search("number"),
					KeyDate:     a.date("keyDate"),
					KeyDateFrom: a.date("keyDateFrom"),
					KeyDateTo:   a.date("keyDateTo"),
					OnSaleDate:  a.date("onSaleDate"),
				}
				return listRoot(r, p, "issues", a, func(ctx context.Context, w pagination.Window) (interface{}, error) {
					return r.reader.ListIssues(ctx, f, w)
				})
			},
		},
		"stories": &graphql.Field{
			Type: t.storyConnection,
			Args: withWindow(graphql.FieldConfigArgument{
				"title":      str(),
				"feature":    str(),
				"characters": str(),
				"issueId":    num(),
				"typeId":     num(),
			}),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a := &argReader{args: p.Args}
				f := store.StoryFilter{
					Title:      a.search("title"),
					Feature:    a.search("feature"),
					Characters: a.search("characters"),
					IssueID:    a.id("issueId"),
					TypeID:     a.id("typeId"),
				}
				return listRoot(r, p, "stories", a, func(ctx context.Context, w pagination.Window) (interface{}, error) {
					return r.reader.ListStories(ctx, f, w)
				})
			},
		},
		"countries": &graphql.Field{
			Type: t.countryConnection,
			Args: withWindow(graphql.FieldConfigArgument{"name": str()}),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a := &argReader{args: p.Args}
				f := store.NameFilter{Name: a.search("name")}
				return listRoot(r, p, "countries", a, func(ctx context.Context, w pagination.Window) (interface{}, error) {
					return r.reader.ListCountries(ctx, f, w)
				})
			},
		},
		"languages": &graphql.Field{
			Type: t.languageConnection,
			Args: withWindow(graphql.FieldConfigArgument{"name": str()}),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a := &argReader{args: p.Args}
				f := store.NameFilter{Name: a.search("name")}
				return listRoot(r, p, "languages", a, func(ctx context.Context, w pagination.Window) (interface{}, error) {
					return r.reader.ListLanguages(ctx, f, w)
				})
			},
		},
		"storyTypes": &graphql.Field{
			Type: t.storyTypeConnection,
			Args: windowArgs(),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return listRoot(r, p, "storyTypes", &argReader{args: p.Args}, func(ctx context.Context, w pagination.Window) (interface{}, error) {
					return r.reader.ListStoryTypes(ctx, w)
				})
			},
		},
	}
}

// listRoot validates a root list field and runs it. Nothing reaches storage
// when any argument is invalid.
func listRoot(r *Resolver, p graphql.ResolveParams, name string, a *argReader, run func(context.Context, pagination.Window) (interface{}, error)) (interface{}, error) {
	if a.err != nil {
		return nil, a.err
	}
	w, err := pagination.ParseWindow(p.Args, r.defaultLimit)
	if err != nil {
		return nil, err
	}
	if err := r.checkLimits(p); err != nil {
		return nil, err
	}

	ctx, span := startResolverSpan(p.Context, "graphql.list",
		attribute.String("graphql.field", name),
		attribute.Int("graphql.limit", w.Limit),
		attribute.Int("graphql.offset", w.Offset),
	)
	result, err := run(ctx, w)
	finishResolverSpan(span, err, "")
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lookup resolves a root by-id field. A missing row is null, not an error.
// The record primes the matching loader so nested references to it are
// served without another query.
func lookup[V dataloader.Keyed[int]](
	r *Resolver,
	p graphql.ResolveParams,
	name string,
	read func(context.Context, int) (V, bool, error),
	loaderOf func(*loaders.Registry) *dataloader.Loader[int, V],
) (interface{}, error) {
	id, _ := p.Args["id"].(int)
	if err := validate.ID("id", id); err != nil {
		return nil, err
	}
	if err := r.checkLimits(p); err != nil {
		return nil, err
	}

	ctx, span := startResolverSpan(p.Context, "graphql.lookup",
		attribute.String("graphql.field", name),
		attribute.Int("graphql.id", id),
	)
	v, found, err := read(ctx, id)
	outcome := ""
	if err == nil && !found {
		outcome = "not_found"
	}
	finishResolverSpan(span, err, outcome)
	if err != nil || !found {
		return nil, err
	}

	if loaderOf != nil {
		if reg, ok := loaders.FromContext(p.Context); ok {
			loaderOf(reg).Prime(v)
		}
	}
	return v, nil
}
