package planner

import (
	"fmt"
	"strconv"

	"github.com/graphql-go/graphql/language/ast"
)

// PlanLimits defines cost limits checked before a root field runs.
type PlanLimits struct {
	MaxDepth int
	MaxRows  int
}

// PlanCost captures the estimated cost of a root field selection.
type PlanCost struct {
	Depth int
	Rows  int
}

// EstimateCost estimates depth and worst-case row count for a root field.
// args are the root field's coerced arguments; nested list fields use their
// literal limit argument or fallbackLimit.
func EstimateCost(field *ast.Field, args map[string]interface{}, fallbackLimit int) PlanCost {
	if field == nil {
		return PlanCost{}
	}
	return PlanCost{
		Depth: selectionDepth(field, 1),
		Rows:  estimateRows(field, args, fallbackLimit),
	}
}

// ValidateLimits reports the first limit cost exceeds. Zero limits are off.
func ValidateLimits(cost PlanCost, limits PlanLimits) error {
	if limits.MaxDepth > 0 && cost.Depth > limits.MaxDepth {
		return fmt.Errorf("query exceeds maximum depth of %d (depth: %d)", limits.MaxDepth, cost.Depth)
	}
	if limits.MaxRows > 0 && cost.Rows > limits.MaxRows {
		return fmt.Errorf("query exceeds maximum rows of %d (estimated: %d)", limits.MaxRows, cost.Rows)
	}
	return nil
}

// isConnectionField reports whether field returns a connection, i.e. takes
// a limit argument and wraps its rows in items.
func isConnectionField(field *ast.Field) bool {
	return hasArgNamed(field, "limit") || hasChildNamed(field, "items")
}

// connectionDataSelections unwraps items; totalCount costs no rows.
func connectionDataSelections(field *ast.Field) []ast.Selection {
	if field.SelectionSet == nil {
		return nil
	}
	var result []ast.Selection
	for _, sel := range field.SelectionSet.Selections {
		sub, ok := sel.(*ast.Field)
		if !ok || sub.Name == nil {
			continue
		}
		if sub.Name.Value == "items" && sub.SelectionSet != nil {
			result = append(result, sub.SelectionSet.Selections...)
		}
	}
	return result
}

func childSelections(field *ast.Field) []ast.Selection {
	if field.SelectionSet == nil {
		return nil
	}
	if isConnectionField(field) {
		return connectionDataSelections(field)
	}
	return field.SelectionSet.Selections
}

func selectionDepth(field *ast.Field, current int) int {
	maxDepth := current
	for _, selection := range childSelections(field) {
		sub, ok := selection.(*ast.Field)
		if !ok {
			continue
		}
		if depth := selectionDepth(sub, current+1); depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}

func estimateRows(field *ast.Field, args map[string]interface{}, fallbackLimit int) int {
	limit := 1
	if isConnectionField(field) {
		limit = listLimit(field, args, fallbackLimit)
	}
	rows := limit
	for _, selection := range childSelections(field) {
		sub, ok := selection.(*ast.Field)
		if !ok || sub.SelectionSet == nil {
			continue
		}
		rows += limit * estimateRows(sub, nil, fallbackLimit)
	}
	return rows
}

func listLimit(field *ast.Field, args map[string]interface{}, fallback int) int {
	if v, ok := args["limit"].(int); ok && v > 0 {
		return v
	}
	for _, arg := range field.Arguments {
		if arg == nil || arg.Name == nil || arg.Name.Value != "limit" {
			continue
		}
		if intVal, ok := arg.Value.(*ast.IntValue); ok {
			if parsed, err := strconv.Atoi(intVal.Value); err == nil && parsed > 0 {
				return parsed
			}
		}
	}
	return fallback
}

func hasArgNamed(field *ast.Field, name string) bool {
	for _, arg := range field.Arguments {
		if arg != nil && arg.Name != nil && arg.Name.Value == name {
			return true
		}
	}
	return false
}

func hasChildNamed(field *ast.Field, name string) bool {
	if field.SelectionSet == nil {
		return false
	}
	for _, sel := range field.SelectionSet.Selections {
		if sub, ok := sel.(*ast.Field); ok && sub.Name != nil && sub.Name.Value == name {
			return true
		}
	}
	return false
}
