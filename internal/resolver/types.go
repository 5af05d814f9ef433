package resolver

import (
	"comics-graphql/internal/catalog"

	"github.com/graphql-go/graphql"
)

// schemaTypes holds the object types of one schema. Types reference each
// other, so their fields are declared through thunks.
type schemaTypes struct {
	country, language, storyType   *graphql.Object
	publisher, series, issue, story *graphql.Object

	countryConnection, languageConnection, storyTypeConnection *graphql.Object
	publisherConnection, seriesConnection                      *graphql.Object
	issueConnection, storyConnection                           *graphql.Object
}

func connectionType(name string, item *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        name,
		Description: "A page of " + item.Name() + " records and the total number of matches.",
		Fields: graphql.Fields{
			"items":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(item)))},
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})
}

func (r *Resolver) buildTypes() *schemaTypes {
	t := &schemaTypes{}

	t.country = graphql.NewObject(graphql.ObjectConfig{
		Name: "Country",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"code": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	t.language = graphql.NewObject(graphql.ObjectConfig{
		Name: "Language",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"code": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	t.storyType = graphql.NewObject(graphql.ObjectConfig{
		Name: "StoryType",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"sortCode": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	t.publisher = graphql.NewObject(graphql.ObjectConfig{
		Name: "Publisher",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"yearBegan":   &graphql.Field{Type: graphql.Int},
				"yearEnded":   &graphql.Field{Type: graphql.Int},
				"url":         &graphql.Field{Type: graphql.String},
				"notes":       &graphql.Field{Type: graphql.String},
				"seriesCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"issueCount":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"country": &graphql.Field{
					Type:    t.country,
					Resolve: r.publisherCountry,
				},
				"series": &graphql.Field{
					Type:    t.seriesConnection,
					Args:    windowArgs(),
					Resolve: r.publisherSeries,
				},
			}
		}),
	})

	t.series = graphql.NewObject(graphql.ObjectConfig{
		Name: "Series",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"sortName":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"format":     &graphql.Field{Type: graphql.String},
				"yearBegan":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"yearEnded":  &graphql.Field{Type: graphql.Int},
				"issueCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"isCurrent": &graphql.Field{
					Type: graphql.NewNonNull(graphql.Boolean),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						s, err := sourceAs[*catalog.Series](p)
						if err != nil {
							return nil, err
						}
						return catalog.FlagToBool(s.IsCurrent), nil
					},
				},
				"publisher": &graphql.Field{Type: t.publisher, Resolve: r.seriesPublisher},
				"country":   &graphql.Field{Type: t.country, Resolve: r.seriesCountry},
				"language":  &graphql.Field{Type: t.language, Resolve: r.seriesLanguage},
				"issues": &graphql.Field{
					Type:    t.issueConnection,
					Args:    windowArgs(),
					Resolve: r.seriesIssues,
				},
			}
		}),
	})

	t.issue = graphql.NewObject(graphql.ObjectConfig{
		Name: "Issue",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"number":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"title":           &graphql.Field{Type: graphql.String},
				"sortCode":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"keyDate":         &graphql.Field{Type: graphql.String, Description: "YYYY-MM-DD; 00 marks an unknown month or day."},
				"publicationDate": &graphql.Field{Type: graphql.String},
				"onSaleDate":      &graphql.Field{Type: graphql.String},
				"price":           &graphql.Field{Type: graphql.String},
				"pageCount":       &graphql.Field{Type: graphql.Float},
				"series":          &graphql.Field{Type: t.series, Resolve: r.issueSeries},
				"variantOf":       &graphql.Field{Type: t.issue, Resolve: r.issueVariantOf},
				"variants": &graphql.Field{
					Type:    t.issueConnection,
					Args:    windowArgs(),
					Resolve: r.issueVariants,
				},
				"stories": &graphql.Field{
					Type:    t.storyConnection,
					Args:    windowArgs(),
					Resolve: r.issueStories,
				},
			}
		}),
	})

	t.story = graphql.NewObject(graphql.ObjectConfig{
		Name: "Story",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"title":          &graphql.Field{Type: graphql.String},
				"feature":        &graphql.Field{Type: graphql.String},
				"sequenceNumber": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"pageCount":      &graphql.Field{Type: graphql.Float},
				"script":         &graphql.Field{Type: graphql.String},
				"pencils":        &graphql.Field{Type: graphql.String},
				"inks":           &graphql.Field{Type: graphql.String},
				"colors":         &graphql.Field{Type: graphql.String},
				"letters":        &graphql.Field{Type: graphql.String},
				"genre":          &graphql.Field{Type: graphql.String},
				"characters":     &graphql.Field{Type: graphql.String},
				"synopsis":       &graphql.Field{Type: graphql.String},
				"issue":          &graphql.Field{Type: t.issue, Resolve: r.storyIssue},
				"type":           &graphql.Field{Type: t.storyType, Resolve: r.storyType},
			}
		}),
	})

	t.countryConnection = connectionType("CountryConnection", t.country)
	t.languageConnection = connectionType("LanguageConnection", t.language)
	t.storyTypeConnection = connectionType("StoryTypeConnection", t.storyType)
	t.publisherConnection = connectionType("PublisherConnection", t.publisher)
	t.seriesConnection = connectionType("SeriesConnection", t.series)
	t.issueConnection = connectionType("IssueConnection", t.issue)
	t.storyConnection = connectionType("StoryConnection", t.story)
	return t
}
