package planner

import (
	"testing"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func name(v string) *ast.Name { return &ast.Name{Value: v} }

func limitArg(v string) []*ast.Argument {
	return []*ast.Argument{{Name: name("limit"), Value: &ast.IntValue{Value: v}}}
}

func selections(fields ...*ast.Field) *ast.SelectionSet {
	set := &ast.SelectionSet{}
	for _, f := range fields {
		set.Selections = append(set.Selections, f)
	}
	return set
}

func TestEstimateCostNestedConnections(t *testing.T) {
	// publishers(limit:2) { items { series(limit:3) { items { issues(limit:4) { items { id } } } } } totalCount }
	issues := &ast.Field{
		Name:         name("issues"),
		Arguments:    limitArg("4"),
		SelectionSet: selections(&ast.Field{Name: name("items"), SelectionSet: selections(&ast.Field{Name: name("id")})}),
	}
	series := &ast.Field{
		Name:         name("series"),
		Arguments:    limitArg("3"),
		SelectionSet: selections(&ast.Field{Name: name("items"), SelectionSet: selections(issues)}),
	}
	publishers := &ast.Field{
		Name:      name("publishers"),
		Arguments: limitArg("2"),
		SelectionSet: selections(
			&ast.Field{Name: name("items"), SelectionSet: selections(series)},
			&ast.Field{Name: name("totalCount")},
		),
	}

	cost := EstimateCost(publishers, nil, 20)
	assert.Equal(t, 4, cost.Depth)
	assert.Equal(t, 32, cost.Rows)
}

func TestEstimateCostSingleObject(t *testing.T) {
	// publisher(id: 1) { name country { name } }
	field := &ast.Field{
		Name: name("publisher"),
		SelectionSet: selections(
			&ast.Field{Name: name("name")},
			&ast.Field{Name: name("country"), SelectionSet: selections(&ast.Field{Name: name("name")})},
		),
	}

	cost := EstimateCost(field, nil, 20)
	assert.Equal(t, 3, cost.Depth)
	assert.Equal(t, 2, cost.Rows)
}

func TestEstimateCostUsesArgsThenFallback(t *testing.T) {
	field := &ast.Field{
		Name:         name("issues"),
		SelectionSet: selections(&ast.Field{Name: name("items"), SelectionSet: selections(&ast.Field{Name: name("id")})}),
	}

	assert.Equal(t, 20, EstimateCost(field, nil, 20).Rows)
	assert.Equal(t, 7, EstimateCost(field, map[string]interface{}{"limit": 7}, 20).Rows)
}

func TestValidateLimits(t *testing.T) {
	require.NoError(t, ValidateLimits(PlanCost{Depth: 10, Rows: 1_000_000}, PlanLimits{}))
	require.NoError(t, ValidateLimits(PlanCost{Depth: 5, Rows: 10}, PlanLimits{MaxDepth: 5, MaxRows: 10}))

	err := ValidateLimits(PlanCost{Depth: 6}, PlanLimits{MaxDepth: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum depth of 5")

	err = ValidateLimits(PlanCost{Depth: 1, Rows: 11}, PlanLimits{MaxRows: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum rows of 10")
}
