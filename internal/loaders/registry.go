// Package loaders holds the request-scoped loader registry. A registry is
// created for each GraphQL operation and travels in its context; resolvers
// reach every relationship through it.
package loaders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"comics-graphql/internal/catalog"
	"comics-graphql/internal/dataloader"
	"comics-graphql/internal/pagination"
)

// Source supplies the batch fetches behind the registry's loaders.
type Source interface {
	CountriesByID(ctx context.Context, ids []int) ([]*catalog.Country, error)
	LanguagesByID(ctx context.Context, ids []int) ([]*catalog.Language, error)
	PublishersByID(ctx context.Context, ids []int) ([]*catalog.Publisher, error)
	SeriesByID(ctx context.Context, ids []int) ([]*catalog.Series, error)
	IssuesByID(ctx context.Context, ids []int) ([]*catalog.Issue, error)
	StoryTypesByID(ctx context.Context, ids []int) ([]*catalog.StoryType, error)

	SeriesByPublisher(ctx context.Context, publisherIDs []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Series], error)
	IssuesBySeries(ctx context.Context, seriesIDs []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Issue], error)
	StoriesByIssue(ctx context.Context, issueIDs []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Story], error)
	VariantsByIssue(ctx context.Context, issueIDs []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Issue], error)
}

// Options configures every loader of a registry.
type Options struct {
	// Wait bounds how long an undispatched batch may stay open.
	Wait time.Duration
}

// Registry owns one loader per relationship for a single operation.
type Registry struct {
	CountryByID   *dataloader.Loader[int, *catalog.Country]
	LanguageByID  *dataloader.Loader[int, *catalog.Language]
	PublisherByID *dataloader.Loader[int, *catalog.Publisher]
	SeriesByID    *dataloader.Loader[int, *catalog.Series]
	IssueByID     *dataloader.Loader[int, *catalog.Issue]
	StoryTypeByID *dataloader.Loader[int, *catalog.StoryType]

	source Source
	opts   Options
	stats  *dataloader.Stats

	mu                sync.Mutex
	closed            bool
	seriesByPublisher map[pagination.Window]*dataloader.ParentLoader[int, *catalog.Series]
	issuesBySeries    map[pagination.Window]*dataloader.ParentLoader[int, *catalog.Issue]
	storiesByIssue    map[pagination.Window]*dataloader.ParentLoader[int, *catalog.Story]
	variantsByIssue   map[pagination.Window]*dataloader.ParentLoader[int, *catalog.Issue]
}

// NewRegistry creates the loaders for one operation.
func NewRegistry(source Source, opts Options) *Registry {
	r := &Registry{
		source:            source,
		opts:              opts,
		stats:             &dataloader.Stats{},
		seriesByPublisher: make(map[pagination.Window]*dataloader.ParentLoader[int, *catalog.Series]),
		issuesBySeries:    make(map[pagination.Window]*dataloader.ParentLoader[int, *catalog.Issue]),
		storiesByIssue:    make(map[pagination.Window]*dataloader.ParentLoader[int, *catalog.Story]),
		variantsByIssue:   make(map[pagination.Window]*dataloader.ParentLoader[int, *catalog.Issue]),
	}
	r.CountryByID = dataloader.NewLoader(source.CountriesByID, r.loaderOptions("countryByID"))
	r.LanguageByID = dataloader.NewLoader(source.LanguagesByID, r.loaderOptions("languageByID"))
	r.PublisherByID = dataloader.NewLoader(source.PublishersByID, r.loaderOptions("publisherByID"))
	r.SeriesByID = dataloader.NewLoader(source.SeriesByID, r.loaderOptions("seriesByID"))
	r.IssueByID = dataloader.NewLoader(source.IssuesByID, r.loaderOptions("issueByID"))
	r.StoryTypeByID = dataloader.NewLoader(source.StoryTypesByID, r.loaderOptions("storyTypeByID"))
	return r
}

func (r *Registry) loaderOptions(name string) dataloader.Options {
	return dataloader.Options{Name: name, Wait: r.opts.Wait, Stats: r.stats}
}

// Stats returns the counters shared by all loaders of the registry.
func (r *Registry) Stats() *dataloader.Stats {
	return r.stats
}

// SeriesByPublisher returns the loader for one page window of Publisher.series.
func (r *Registry) SeriesByPublisher(w pagination.Window) *dataloader.ParentLoader[int, *catalog.Series] {
	return pageLoader(r, r.seriesByPublisher, "seriesByPublisher", w, r.source.SeriesByPublisher)
}

// IssuesBySeries returns the loader for one page window of Series.issues.
func (r *Registry) IssuesBySeries(w pagination.Window) *dataloader.ParentLoader[int, *catalog.Issue] {
	return pageLoader(r, r.issuesBySeries, "issuesBySeries", w, r.source.IssuesBySeries)
}

// StoriesByIssue returns the loader for one page window of Issue.stories.
func (r *Registry) StoriesByIssue(w pagination.Window) *dataloader.ParentLoader[int, *catalog.Story] {
	return pageLoader(r, r.storiesByIssue, "storiesByIssue", w, r.source.StoriesByIssue)
}

// VariantsByIssue returns the loader for one page window of Issue.variants.
func (r *Registry) VariantsByIssue(w pagination.Window) *dataloader.ParentLoader[int, *catalog.Issue] {
	return pageLoader(r, r.variantsByIssue, "variantsByIssue", w, r.source.VariantsByIssue)
}

// pageLoader returns the loader serving window w, creating it on first use
// so siblings asking for the same window share one batch.
func pageLoader[V dataloader.Ordered[V]](
	r *Registry,
	loaders map[pagination.Window]*dataloader.ParentLoader[int, V],
	name string,
	w pagination.Window,
	fetch func(context.Context, []int, pagination.Window) (dataloader.GroupResult[int, V], error),
) *dataloader.ParentLoader[int, V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if loader, ok := loaders[w]; ok {
		return loader
	}
	loader := dataloader.NewParentLoader(
		func(ctx context.Context, keys []int) (dataloader.GroupResult[int, V], error) {
			return fetch(ctx, keys, w)
		},
		r.loaderOptions(fmt.Sprintf("%s(limit=%d,offset=%d)", name, w.Limit, w.Offset)),
	)
	if r.closed {
		loader.Close()
		return loader
	}
	loaders[w] = loader
	return loader
}

// Close releases every loader. Loads issued afterwards fail with
// dataloader.ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true

	r.CountryByID.Close()
	r.LanguageByID.Close()
	r.PublisherByID.Close()
	r.SeriesByID.Close()
	r.IssueByID.Close()
	r.StoryTypeByID.Close()
	closeAll(r.seriesByPublisher)
	closeAll(r.issuesBySeries)
	closeAll(r.storiesByIssue)
	closeAll(r.variantsByIssue)
}

func closeAll[V dataloader.Ordered[V]](loaders map[pagination.Window]*dataloader.ParentLoader[int, V]) {
	for w, loader := range loaders {
		loader.Close()
		delete(loaders, w)
	}
}

type registryKey struct{}

// WithRegistry attaches r to ctx.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// FromContext returns the registry of the current operation.
func FromContext(ctx context.Context) (*Registry, bool) {
	if ctx == nil {
		return nil, false
	}
	r, ok := ctx.Value(registryKey{}).(*Registry)
	return r, ok && r != nil
}
