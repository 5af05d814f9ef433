package resolver

import (
	"context"
	"log/slog"

	"comics-graphql/internal/apperror"
	"comics-graphql/internal/catalog"
	"comics-graphql/internal/dataloader"
	"comics-graphql/internal/logging"
	"comics-graphql/internal/loaders"
	"comics-graphql/internal/pagination"

	"github.com/graphql-go/graphql"
)

// Relationship resolvers register their key with a registry loader and hand
// graphql-go a thunk. graphql-go runs every resolver at one depth before it
// calls the first thunk, so the loader sees all sibling keys in one batch.

// loadRequired resolves a many-to-one reference that must exist. A dangling
// key is an integrity problem and surfaces as NOT_FOUND on this field only.
func loadRequired[V dataloader.Keyed[int]](ctx context.Context, loader *dataloader.Loader[int, V], what string, key int) (interface{}, error) {
	thunk := loader.Load(ctx, key)
	return func() (interface{}, error) {
		v, found, err := thunk()
		if err != nil {
			return nil, err
		}
		if !found {
			logging.FromContext(ctx).Warn("dangling reference",
				slog.String("relation", what),
				slog.Int("key", key),
			)
			return nil, apperror.ErrNotFound.WithMessagef("%s %d not found", what, key)
		}
		return v, nil
	}, nil
}

// loadOptional resolves a nullable many-to-one reference. A nil key never
// reaches the loader, and a missing row resolves to null.
func loadOptional[V dataloader.Keyed[int]](ctx context.Context, loader *dataloader.Loader[int, V], key *int) (interface{}, error) {
	if key == nil {
		return nil, nil
	}
	thunk := loader.Load(ctx, *key)
	return func() (interface{}, error) {
		v, found, err := thunk()
		if err != nil || !found {
			return nil, err
		}
		return v, nil
	}, nil
}

// loadChildren resolves a one-to-many relationship into a connection.
func loadChildren[V dataloader.Ordered[V]](ctx context.Context, loader *dataloader.ParentLoader[int, V], parentKey int) (interface{}, error) {
	thunk := loader.LoadGroup(ctx, parentKey)
	return func() (interface{}, error) {
		group, err := thunk()
		if err != nil {
			return nil, err
		}
		return pagination.NewConnection(group.Items, group.Total), nil
	}, nil
}

// childWindow parses the page arguments of a one-to-many field.
func (r *Resolver) childWindow(p graphql.ResolveParams) (*loaders.Registry, pagination.Window, error) {
	w, err := pagination.ParseWindow(p.Args, r.defaultLimit)
	if err != nil {
		return nil, pagination.Window{}, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, pagination.Window{}, err
	}
	return reg, w, nil
}

func (r *Resolver) publisherCountry(p graphql.ResolveParams) (interface{}, error) {
	pub, err := sourceAs[*catalog.Publisher](p)
	if err != nil {
		return nil, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return loadRequired(p.Context, reg.CountryByID, "country", pub.CountryID)
}

func (r *Resolver) publisherSeries(p graphql.ResolveParams) (interface{}, error) {
	pub, err := sourceAs[*catalog.Publisher](p)
	if err != nil {
		return nil, err
	}
	reg, w, err := r.childWindow(p)
	if err != nil {
		return nil, err
	}
	return loadChildren(p.Context, reg.SeriesByPublisher(w), pub.ID)
}

func (r *Resolver) seriesPublisher(p graphql.ResolveParams) (interface{}, error) {
	s, err := sourceAs[*catalog.Series](p)
	if err != nil {
		return nil, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return loadRequired(p.Context, reg.PublisherByID, "publisher", s.PublisherID)
}

func (r *Resolver) seriesCountry(p graphql.ResolveParams) (interface{}, error) {
	s, err := sourceAs[*catalog.Series](p)
	if err != nil {
		return nil, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return loadRequired(p.Context, reg.CountryByID, "country", s.CountryID)
}

func (r *Resolver) seriesLanguage(p graphql.ResolveParams) (interface{}, error) {
	s, err := sourceAs[*catalog.Series](p)
	if err != nil {
		return nil, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return loadRequired(p.Context, reg.LanguageByID, "language", s.LanguageID)
}

func (r *Resolver) seriesIssues(p graphql.ResolveParams) (interface{}, error) {
	s, err := sourceAs[*catalog.Series](p)
	if err != nil {
		return nil, err
	}
	reg, w, err := r.childWindow(p)
	if err != nil {
		return nil, err
	}
	return loadChildren(p.Context, reg.IssuesBySeries(w), s.ID)
}

func (r *Resolver) issueSeries(p graphql.ResolveParams) (interface{}, error) {
	issue, err := sourceAs[*catalog.Issue](p)
	if err != nil {
		return nil, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return loadRequired(p.Context, reg.SeriesByID, "series", issue.SeriesID)
}

func (r *Resolver) issueVariantOf(p graphql.ResolveParams) (interface{}, error) {
	issue, err := sourceAs[*catalog.Issue](p)
	if err != nil {
		return nil, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return loadOptional(p.Context, reg.IssueByID, issue.VariantOfID)
}

func (r *Resolver) issueVariants(p graphql.ResolveParams) (interface{}, error) {
	issue, err := sourceAs[*catalog.Issue](p)
	if err != nil {
		return nil, err
	}
	reg, w, err := r.childWindow(p)
	if err != nil {
		return nil, err
	}
	return loadChildren(p.Context, reg.VariantsByIssue(w), issue.ID)
}

func (r *Resolver) issueStories(p graphql.ResolveParams) (interface{}, error) {
	issue, err := sourceAs[*catalog.Issue](p)
	if err != nil {
		return nil, err
	}
	reg, w, err := r.childWindow(p)
	if err != nil {
		return nil, err
	}
	return loadChildren(p.Context, reg.StoriesByIssue(w), issue.ID)
}

func (r *Resolver) storyIssue(p graphql.ResolveParams) (interface{}, error) {
	story, err := sourceAs[*catalog.Story](p)
	if err != nil {
		return nil, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return loadRequired(p.Context, reg.IssueByID, "issue", story.IssueID)
}

func (r *Resolver) storyType(p graphql.ResolveParams) (interface{}, error) {
	story, err := sourceAs[*catalog.Story](p)
	if err != nil {
		return nil, err
	}
	reg, err := registryFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return loadOptional(p.Context, reg.StoryTypeByID, story.TypeID)
}
