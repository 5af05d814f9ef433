package store

import (
	"comics-graphql/internal/catalog"
	"comics-graphql/internal/dbexec"
	"comics-graphql/internal/planner"
)

// entity binds a table to the scanner producing its records. The scanner
// reads the table columns in order followed by any extra destinations.
type entity[T any] struct {
	table planner.Table
	scan  func(rows dbexec.Rows, extra ...any) (T, error)
}

var countries = entity[*catalog.Country]{
	table: planner.Table{
		Name:       "stddata_country",
		Columns:    []string{"id", "code", "name"},
		SortColumn: "name",
	},
	scan: func(rows dbexec.Rows, extra ...any) (*catalog.Country, error) {
		c := &catalog.Country{}
		err := rows.Scan(append([]any{&c.ID, &c.Code, &c.Name}, extra...)...)
		return c, err
	},
}

var languages = entity[*catalog.Language]{
	table: planner.Table{
		Name:       "stddata_language",
		Columns:    []string{"id", "code", "name"},
		SortColumn: "name",
	},
	scan: func(rows dbexec.Rows, extra ...any) (*catalog.Language, error) {
		l := &catalog.Language{}
		err := rows.Scan(append([]any{&l.ID, &l.Code, &l.Name}, extra...)...)
		return l, err
	},
}

var publishers = entity[*catalog.Publisher]{
	table: planner.Table{
		Name: "gcd_publisher",
		Columns: []string{
			"id", "name", "country_id", "year_began", "year_ended",
			"url", "notes", "series_count", "issue_count",
		},
		SortColumn: "name",
		SoftDelete: true,
	},
	scan: func(rows dbexec.Rows, extra ...any) (*catalog.Publisher, error) {
		p := &catalog.Publisher{}
		err := rows.Scan(append([]any{
			&p.ID, &p.Name, &p.CountryID, &p.YearBegan, &p.YearEnded,
			&p.URL, &p.Notes, &p.SeriesCount, &p.IssueCount,
		}, extra...)...)
		return p, err
	},
}

var series = entity[*catalog.Series]{
	table: planner.Table{
		Name: "gcd_series",
		Columns: []string{
			"id", "name", "sort_name", "format", "year_began", "year_ended",
			"is_current", "publisher_id", "country_id", "language_id", "issue_count",
		},
		SortColumn: "sort_name",
		SoftDelete: true,
	},
	scan: func(rows dbexec.Rows, extra ...any) (*catalog.Series, error) {
		s := &catalog.Series{}
		err := rows.Scan(append([]any{
			&s.ID, &s.Name, &s.SortName, &s.Format, &s.YearBegan, &s.YearEnded,
			&s.IsCurrent, &s.PublisherID, &s.CountryID, &s.LanguageID, &s.IssueCount,
		}, extra...)...)
		return s, err
	},
}

var issues = entity[*catalog.Issue]{
	table: planner.Table{
		Name: "gcd_issue",
		Columns: []string{
			"id", "number", "title", "series_id", "sort_code", "key_date",
			"publication_date", "on_sale_date", "price", "page_count", "variant_of_id",
		},
		SortColumn: "sort_code",
		SoftDelete: true,
	},
	scan: func(rows dbexec.Rows, extra ...any) (*catalog.Issue, error) {
		i := &catalog.Issue{}
		err := rows.Scan(append([]any{
			&i.ID, &i.Number, &i.Title, &i.SeriesID, &i.SortCode, &i.KeyDate,
			&i.PublicationDate, &i.OnSaleDate, &i.Price, &i.PageCount, &i.VariantOfID,
		}, extra...)...)
		return i, err
	},
}

var storyTypes = entity[*catalog.StoryType]{
	table: planner.Table{
		Name:       "gcd_story_type",
		Columns:    []string{"id", "name", "sort_code"},
		SortColumn: "sort_code",
	},
	scan: func(rows dbexec.Rows, extra ...any) (*catalog.StoryType, error) {
		t := &catalog.StoryType{}
		err := rows.Scan(append([]any{&t.ID, &t.Name, &t.SortCode}, extra...)...)
		return t, err
	},
}

var stories = entity[*catalog.Story]{
	table: planner.Table{
		Name: "gcd_story",
		Columns: []string{
			"id", "title", "feature", "sequence_number", "page_count", "issue_id", "type_id",
			"script", "pencils", "inks", "colors", "letters", "genre", "characters", "synopsis",
		},
		SortColumn: "sequence_number",
		SoftDelete: true,
	},
	scan: func(rows dbexec.Rows, extra ...any) (*catalog.Story, error) {
		s := &catalog.Story{}
		err := rows.Scan(append([]any{
			&s.ID, &s.Title, &s.Feature, &s.SequenceNumber, &s.PageCount, &s.IssueID, &s.TypeID,
			&s.Script, &s.Pencils, &s.Inks, &s.Colors, &s.Letters, &s.Genre, &s.Characters, &s.Synopsis,
		}, extra...)...)
		return s, err
	},
}
