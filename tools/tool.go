package tools

import (
	"context"
	"errors"

	"github.com/bububa/codecrew/schema"
)

// ErrInvalidInputSchema is returned when an anonymous tool receives an unexpected input
var ErrInvalidInputSchema = errors.New("invalid tool input schema")

type ITool interface {
	SetTitle(string)
	Title() string
	SetDescription(string)
	Description() string
	SetStartHook(fn func(context.Context, AnonymousTool, any))
	SetEndHook(fn func(context.Context, AnonymousTool, any, any))
	SetErrorHook(fn func(context.Context, AnonymousTool, any, error))
}

type Tool[I schema.Schema, O schema.Schema] interface {
	ITool
	Run(context.Context, *I, *O) error
}

type AnonymousTool interface {
	ITool
	RunAnonymous(context.Context, any) (any, error)
}

// hooked is implemented by tools embedding Config
type hooked interface {
	StartHook() func(context.Context, AnonymousTool, any)
	EndHook() func(context.Context, AnonymousTool, any, any)
	ErrorHook() func(context.Context, AnonymousTool, any, error)
}

// RunAnonymous runs a typed tool with an untyped input, firing the tool's hooks.
// self is the anonymous view of tool passed to the hooks.
func RunAnonymous[I schema.Schema, O schema.Schema](ctx context.Context, tool Tool[I, O], self AnonymousTool, input any) (any, error) {
	var hooks hooked
	if h, ok := tool.(hooked); ok {
		hooks = h
	}
	in, ok := input.(*I)
	if !ok {
		if hooks != nil {
			if fn := hooks.ErrorHook(); fn != nil {
				fn(ctx, self, input, ErrInvalidInputSchema)
			}
		}
		return nil, ErrInvalidInputSchema
	}
	if hooks != nil {
		if fn := hooks.StartHook(); fn != nil {
			fn(ctx, self, in)
		}
	}
	out := new(O)
	if err := tool.Run(ctx, in, out); err != nil {
		if hooks != nil {
			if fn := hooks.ErrorHook(); fn != nil {
				fn(ctx, self, in, err)
			}
		}
		return nil, err
	}
	if hooks != nil {
		if fn := hooks.EndHook(); fn != nil {
			fn(ctx, self, in, out)
		}
	}
	return out, nil
}
