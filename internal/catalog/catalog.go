// Package catalog defines the records served by the API. Field tags carry
// the GraphQL field names so graphql-go's default resolver can read them.
package catalog

// Country is a row of stddata_country.
type Country struct {
	ID   int    `graphql:"id"`
	Code string `graphql:"code"`
	Name string `graphql:"name"`
}

func (c *Country) LoaderKey() int { return c.ID }

func (c *Country) SortsBefore(other *Country) bool {
	if c.Name != other.Name {
		return c.Name < other.Name
	}
	return c.ID < other.ID
}

// Language is a row of stddata_language.
type Language struct {
	ID   int    `graphql:"id"`
	Code string `graphql:"code"`
	Name string `graphql:"name"`
}

func (l *Language) LoaderKey() int { return l.ID }

func (l *Language) SortsBefore(other *Language) bool {
	if l.Name != other.Name {
		return l.Name < other.Name
	}
	return l.ID < other.ID
}

// Publisher is a row of gcd_publisher.
type Publisher struct {
	ID          int     `graphql:"id"`
	Name        string  `graphql:"name"`
	CountryID   int     `graphql:"-"`
	YearBegan   *int    `graphql:"yearBegan"`
	YearEnded   *int    `graphql:"yearEnded"`
	URL         *string `graphql:"url"`
	Notes       *string `graphql:"notes"`
	SeriesCount int     `graphql:"seriesCount"`
	IssueCount  int     `graphql:"issueCount"`
}

func (p *Publisher) LoaderKey() int { return p.ID }

func (p *Publisher) SortsBefore(other *Publisher) bool {
	if p.Name != other.Name {
		return p.Name < other.Name
	}
	return p.ID < other.ID
}

// Series is a row of gcd_series.
type Series struct {
	ID          int     `graphql:"id"`
	Name        string  `graphql:"name"`
	SortName    string  `graphql:"sortName"`
	Format      *string `graphql:"format"`
	YearBegan   int     `graphql:"yearBegan"`
	YearEnded   *int    `graphql:"yearEnded"`
	IsCurrent   int     `graphql:"-"` // 0/1 flag, exposed as isCurrent
	PublisherID int     `graphql:"-"`
	CountryID   int     `graphql:"-"`
	LanguageID  int     `graphql:"-"`
	IssueCount  int     `graphql:"issueCount"`
}

func (s *Series) LoaderKey() int { return s.ID }

func (s *Series) SortsBefore(other *Series) bool {
	if s.SortName != other.SortName {
		return s.SortName < other.SortName
	}
	return s.ID < other.ID
}

// Issue is a row of gcd_issue. VariantOfID is set on variant covers.
type Issue struct {
	ID              int      `graphql:"id"`
	Number          string   `graphql:"number"`
	Title           *string  `graphql:"title"`
	SeriesID        int      `graphql:"-"`
	SortCode        int      `graphql:"sortCode"`
	KeyDate         *string  `graphql:"keyDate"`
	PublicationDate *string  `graphql:"publicationDate"`
	OnSaleDate      *string  `graphql:"onSaleDate"`
	Price           *string  `graphql:"price"`
	PageCount       *float64 `graphql:"pageCount"`
	VariantOfID     *int     `graphql:"-"`
}

func (i *Issue) LoaderKey() int { return i.ID }

func (i *Issue) SortsBefore(other *Issue) bool {
	if i.SortCode != other.SortCode {
		return i.SortCode < other.SortCode
	}
	return i.ID < other.ID
}

// StoryType is a row of gcd_story_type.
type StoryType struct {
	ID       int    `graphql:"id"`
	Name     string `graphql:"name"`
	SortCode int    `graphql:"sortCode"`
}

func (t *StoryType) LoaderKey() int { return t.ID }

func (t *StoryType) SortsBefore(other *StoryType) bool {
	if t.SortCode != other.SortCode {
		return t.SortCode < other.SortCode
	}
	return t.ID < other.ID
}

// Story is a row of gcd_story. TypeID is nil for unclassified stories.
type Story struct {
	ID             int      `graphql:"id"`
	Title          *string  `graphql:"title"`
	Feature        *string  `graphql:"feature"`
	SequenceNumber int      `graphql:"sequenceNumber"`
	PageCount      *float64 `graphql:"pageCount"`
	IssueID        int      `graphql:"-"`
	TypeID         *int     `graphql:"-"`
	Script         *string  `graphql:"script"`
	Pencils        *string  `graphql:"pencils"`
	Inks           *string  `graphql:"inks"`
	Colors         *string  `graphql:"colors"`
	Letters        *string  `graphql:"letters"`
	Genre          *string  `graphql:"genre"`
	Characters     *string  `graphql:"characters"`
	Synopsis       *string  `graphql:"synopsis"`
}

func (s *Story) LoaderKey() int { return s.ID }

func (s *Story) SortsBefore(other *Story) bool {
	if s.SequenceNumber != other.SequenceNumber {
		return s.SequenceNumber < other.SequenceNumber
	}
	return s.ID < other.ID
}

// FlagToBool converts a stored 0/1 flag to a boolean.
func FlagToBool(flag int) bool {
	return flag != 0
}
