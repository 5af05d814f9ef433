package store

import (
	"context"

	"comics-graphql/internal/catalog"
	"comics-graphql/internal/pagination"
	"comics-graphql/internal/planner"
)

// Filters carry already validated arguments; nil fields do not filter.

type PublisherFilter struct {
	Name        *string
	CountryCode *string
}

type SeriesFilter struct {
	Name         *string
	PublisherID  *int
	LanguageCode *string
	CountryCode  *string
	YearBegan    *int
	IsCurrent    *bool
}

type IssueFilter struct {
	SeriesID    *int
	Number      *string
	KeyDate     *string
	KeyDateFrom *string
	KeyDateTo   *string
	OnSaleDate  *string
}

type StoryFilter struct {
	Title      *string
	Feature    *string
	Characters *string
	IssueID    *int
	TypeID     *int
}

// NameFilter filters reference tables by name.
type NameFilter struct {
	Name *string
}

func (f PublisherFilter) build() *planner.Filter {
	out := &planner.Filter{}
	if f.Name != nil {
		out.Contains("name", *f.Name)
	}
	if f.CountryCode != nil {
		out.MatchesLookup("country_id", countries.table.Name, "code", *f.CountryCode)
	}
	return out
}

func (f SeriesFilter) build() *planner.Filter {
	out := &planner.Filter{}
	if f.Name != nil {
		out.Contains("name", *f.Name)
	}
	if f.PublisherID != nil {
		out.Equals("publisher_id", *f.PublisherID)
	}
	if f.LanguageCode != nil {
		out.MatchesLookup("language_id", languages.table.Name, "code", *f.LanguageCode)
	}
	if f.CountryCode != nil {
		out.MatchesLookup("country_id", countries.table.Name, "code", *f.CountryCode)
	}
	if f.YearBegan != nil {
		out.Equals("year_began", *f.YearBegan)
	}
	if f.IsCurrent != nil {
		flag := 0
		if *f.IsCurrent {
			flag = 1
		}
		out.Equals("is_current", flag)
	}
	return out
}

func (f IssueFilter) build() *planner.Filter {
	out := &planner.Filter{}
	if f.SeriesID != nil {
		out.Equals("series_id", *f.SeriesID)
	}
	if f.Number != nil {
		out.Equals("number", *f.Number)
	}
	if f.KeyDate != nil {
		out.Equals("key_date", *f.KeyDate)
	}
	if f.KeyDateFrom != nil {
		out.AtLeast("key_date", *f.KeyDateFrom)
	}
	if f.KeyDateTo != nil {
		out.AtMost("key_date", *f.KeyDateTo)
	}
	if f.OnSaleDate != nil {
		out.Equals("on_sale_date", *f.OnSaleDate)
	}
	return out
}

func (f StoryFilter) build() *planner.Filter {
	out := &planner.Filter{}
	if f.Title != nil {
		out.Contains("title", *f.Title)
	}
	if f.Feature != nil {
		out.Contains("feature", *f.Feature)
	}
	if f.Characters != nil {
		out.Contains("characters", *f.Characters)
	}
	if f.IssueID != nil {
		out.Equals("issue_id", *f.IssueID)
	}
	if f.TypeID != nil {
		out.Equals("type_id", *f.TypeID)
	}
	return out
}

func (f NameFilter) build() *planner.Filter {
	out := &planner.Filter{}
	if f.Name != nil {
		out.Contains("name", *f.Name)
	}
	return out
}

func (s *Store) ListPublishers(ctx context.Context, f PublisherFilter, w pagination.Window) (pagination.Connection[*catalog.Publisher], error) {
	return list(ctx, s.db, publishers, f.build(), w)
}

func (s *Store) ListSeries(ctx context.Context, f SeriesFilter, w pagination.Window) (pagination.Connection[*catalog.Series], error) {
	return list(ctx, s.db, series, f.build(), w)
}

func (s *Store) ListIssues(ctx context.Context, f IssueFilter, w pagination.Window) (pagination.Connection[*catalog.Issue], error) {
	return list(ctx, s.db, issues, f.build(), w)
}

func (s *Store) ListStories(ctx context.Context, f StoryFilter, w pagination.Window) (pagination.Connection[*catalog.Story], error) {
	return list(ctx, s.db, stories, f.build(), w)
}

func (s *Store) ListCountries(ctx context.Context, f NameFilter, w pagination.Window) (pagination.Connection[*catalog.Country], error) {
	return list(ctx, s.db, countries, f.build(), w)
}

func (s *Store) ListLanguages(ctx context.Context, f NameFilter, w pagination.Window) (pagination.Connection[*catalog.Language], error) {
	return list(ctx, s.db, languages, f.build(), w)
}

func (s *Store) ListStoryTypes(ctx context.Context, w pagination.Window) (pagination.Connection[*catalog.StoryType], error) {
	return list(ctx, s.db, storyTypes, nil, w)
}
