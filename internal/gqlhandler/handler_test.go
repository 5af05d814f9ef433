package gqlhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"comics-graphql/internal/apperror"
	"comics-graphql/internal/catalog"
	"comics-graphql/internal/dataloader"
	"comics-graphql/internal/loaders"
	"comics-graphql/internal/pagination"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu    sync.Mutex
	calls [][]int
}

func (s *stubSource) CountriesByID(_ context.Context, ids []int) ([]*catalog.Country, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]int(nil), ids...))
	s.mu.Unlock()
	out := make([]*catalog.Country, 0, len(ids))
	for _, id := range ids {
		out = append(out, &catalog.Country{ID: id, Code: "us", Name: "United States"})
	}
	return out, nil
}

func (s *stubSource) LanguagesByID(context.Context, []int) ([]*catalog.Language, error) {
	return nil, nil
}

func (s *stubSource) PublishersByID(context.Context, []int) ([]*catalog.Publisher, error) {
	return nil, nil
}

func (s *stubSource) SeriesByID(context.Context, []int) ([]*catalog.Series, error) {
	return nil, nil
}

func (s *stubSource) IssuesByID(context.Context, []int) ([]*catalog.Issue, error) {
	return nil, nil
}

func (s *stubSource) StoryTypesByID(context.Context, []int) ([]*catalog.StoryType, error) {
	return nil, nil
}

func (s *stubSource) SeriesByPublisher(context.Context, []int, pagination.Window) (dataloader.GroupResult[int, *catalog.Series], error) {
	return dataloader.GroupResult[int, *catalog.Series]{}, nil
}

func (s *stubSource) IssuesBySeries(context.Context, []int, pagination.Window) (dataloader.GroupResult[int, *catalog.Issue], error) {
	return dataloader.GroupResult[int, *catalog.Issue]{}, nil
}

func (s *stubSource) StoriesByIssue(context.Context, []int, pagination.Window) (dataloader.GroupResult[int, *catalog.Story], error) {
	return dataloader.GroupResult[int, *catalog.Story]{}, nil
}

func (s *stubSource) VariantsByIssue(context.Context, []int, pagination.Window) (dataloader.GroupResult[int, *catalog.Issue], error) {
	return dataloader.GroupResult[int, *catalog.Issue]{}, nil
}

func testSchema(t *testing.T) *graphql.Schema {
	t.Helper()
	country := graphql.NewObject(graphql.ObjectConfig{
		Name: "Country",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.Int},
			"name": &graphql.Field{Type: graphql.String},
		},
	})
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"ok": &graphql.Field{
					Type: graphql.String,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return "yes", nil
					},
				},
				"boom": &graphql.Field{
					Type: graphql.String,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return nil, errors.New("connection refused")
					},
				},
				"missing": &graphql.Field{
					Type: graphql.String,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return nil, apperror.ErrNotFound.WithMessage("series 9 not found")
					},
				},
				"hasDeadline": &graphql.Field{
					Type: graphql.Boolean,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						_, ok := p.Context.Deadline()
						return ok, nil
					},
				},
				"country": &graphql.Field{
					Type: country,
					Args: graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.Int}},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						reg, ok := loaders.FromContext(p.Context)
						if !ok {
							return nil, errors.New("no registry")
						}
						thunk := reg.CountryByID.Load(p.Context, p.Args["id"].(int))
						return func() (interface{}, error) {
							c, _, err := thunk()
							return c, err
						}, nil
					},
				},
			},
		}),
	})
	require.NoError(t, err)
	return &schema
}

type response struct {
	Data   map[string]interface{} `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func post(query string) *http.Request {
	body, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestServeSuccess(t *testing.T) {
	h := New(Config{Schema: testSchema(t), Source: &stubSource{}})

	rec, resp := serve(t, h, post(`{ ok }`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, "yes", resp.Data["ok"])
}

func TestServeBatchesSiblingLoads(t *testing.T) {
	src := &stubSource{}
	h := New(Config{Schema: testSchema(t), Source: src})

	_, resp := serve(t, h, post(`{ a: country(id: 1) { name } b: country(id: 2) { name } c: country(id: 1) { id } }`))
	require.Empty(t, resp.Errors)
	assert.Equal(t, "United States", resp.Data["a"].(map[string]interface{})["name"])
	require.Len(t, src.calls, 1)
	assert.ElementsMatch(t, []int{1, 2}, src.calls[0])
}

func TestServeRegistryPerOperation(t *testing.T) {
	src := &stubSource{}
	h := New(Config{Schema: testSchema(t), Source: src})

	serve(t, h, post(`{ country(id: 3) { id } }`))
	serve(t, h, post(`{ country(id: 3) { id } }`))
	assert.Len(t, src.calls, 2)
}

func TestServeMasksInternalErrors(t *testing.T) {
	h := New(Config{Schema: testSchema(t), Source: &stubSource{}})

	_, resp := serve(t, h, post(`{ ok boom missing }`))
	assert.Equal(t, "yes", resp.Data["ok"])
	assert.Nil(t, resp.Data["boom"])
	require.Len(t, resp.Errors, 2)

	byCode := map[string]string{}
	for _, e := range resp.Errors {
		byCode[e.Extensions["code"].(string)] = e.Message
		assert.NotContains(t, e.Extensions, "detail")
	}
	assert.Equal(t, "internal error", byCode["INTERNAL_ERROR"])
	assert.Equal(t, "series 9 not found", byCode["NOT_FOUND"])
}

func TestServeExposesDetailOutsideProduction(t *testing.T) {
	h := New(Config{Schema: testSchema(t), Source: &stubSource{}, ExposeErrorDetail: true})

	_, resp := serve(t, h, post(`{ boom }`))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "internal error", resp.Errors[0].Message)
	assert.Equal(t, "connection refused", resp.Errors[0].Extensions["detail"])
}

func TestServeSyntaxErrorIsBadUserInput(t *testing.T) {
	h := New(Config{Schema: testSchema(t), Source: &stubSource{}})

	_, resp := serve(t, h, post(`{ ok`))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "BAD_USER_INPUT", resp.Errors[0].Extensions["code"])
}

func TestServeOperationTimeout(t *testing.T) {
	h := New(Config{Schema: testSchema(t), Source: &stubSource{}})
	_, resp := serve(t, h, post(`{ hasDeadline }`))
	assert.Equal(t, false, resp.Data["hasDeadline"])

	h = New(Config{Schema: testSchema(t), Source: &stubSource{}, OperationTimeout: time.Second})
	_, resp = serve(t, h, post(`{ hasDeadline }`))
	assert.Equal(t, true, resp.Data["hasDeadline"])
}

func TestServeGET(t *testing.T) {
	h := New(Config{Schema: testSchema(t), Source: &stubSource{}})

	req := httptest.NewRequest(http.MethodGet, "/graphql?query=%7Bok%7D", nil)
	_, resp := serve(t, h, req)
	assert.Equal(t, "yes", resp.Data["ok"])
}

func TestServeGraphiQL(t *testing.T) {
	h := New(Config{Schema: testSchema(t), Source: &stubSource{}, GraphiQL: true})

	req := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	req.Header.Set("Accept", "text/html")
	rec, _ := serve(t, h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "graphiql")
}

func TestServeRejectsOtherMethods(t *testing.T) {
	h := New(Config{Schema: testSchema(t), Source: &stubSource{}})

	rec, _ := serve(t, h, httptest.NewRequest(http.MethodDelete, "/graphql", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
}
