package resolver

import (
	"comics-graphql/internal/apperror"
	"comics-graphql/internal/validate"

	"github.com/graphql-go/graphql"
)

func badInput(err error) error {
	return apperror.ErrBadUserInput.WithMessage(err.Error())
}

func windowArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"limit": &graphql.ArgumentConfig{
			Type:        graphql.Int,
			Description: "Page size, 1 to 100. Defaults to the server's list limit.",
		},
		"offset": &graphql.ArgumentConfig{
			Type:        graphql.Int,
			Description: "Rows to skip. Defaults to 0.",
		},
	}
}

// withWindow adds limit and offset to args.
func withWindow(args graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	for name, arg := range windowArgs() {
		args[name] = arg
	}
	return args
}

// argReader collects typed optional arguments and the first validation
// failure among them.
type argReader struct {
	args map[string]interface{}
	err  error
}

func (a *argReader) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

func (a *argReader) optInt(name string) *int {
	v, ok := a.args[name].(int)
	if !ok {
		return nil
	}
	return &v
}

func (a *argReader) id(name string) *int {
	v := a.optInt(name)
	if v != nil {
		if err := validate.ID(name, *v); err != nil {
			a.fail(err)
		}
	}
	return v
}

func (a *argReader) year(name string) *int {
	v := a.optInt(name)
	if v != nil {
		if err := validate.Year(name, *v); err != nil {
			a.fail(err)
		}
	}
	return v
}

func (a *argReader) optBool(name string) *bool {
	v, ok := a.args[name].(bool)
	if !ok {
		return nil
	}
	return &v
}

func (a *argReader) optString(name string) *string {
	v, ok := a.args[name].(string)
	if !ok {
		return nil
	}
	return &v
}

func (a *argReader) search(name string) *string {
	v := a.optString(name)
	if v != nil {
		if err := validate.SearchText(name, *v); err != nil {
			a.fail(err)
		}
	}
	return v
}

func (a *argReader) date(name string) *string {
	v := a.optString(name)
	if v != nil {
		if err := validate.Date(name, *v); err != nil {
			a.fail(err)
		}
	}
	return v
}

func (a *argReader) code(name string) *string {
	v := a.optString(name)
	if v != nil {
		if err := validate.Code(name, *v); err != nil {
			a.fail(err)
		}
	}
	return v
}
