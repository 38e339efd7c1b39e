package agent

import "github.com/mathisarends/rtvoice/pkg/tools"

// Tool builds a ToolSpec from a typed handler, so callers configuring an
// Agent never touch pkg/tools.Register directly.
func Tool[A any](name, description string, handler func(ctx *tools.Context, args A) (any, error), opts ...tools.Option) ToolSpec {
	return ToolSpec{
		Apply: func(r *tools.Registry) error {
			return tools.Register(r, name, description, handler, opts...)
		},
	}
}
