package local

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fwojciec/mcpcli"
	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// Kind tells how a callable produces its result.
type Kind int

const (
	KindSync       Kind = iota // Returns (R, error) directly.
	KindSuspending             // Returns an Awaitable.
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindSuspending:
		return "suspending"
	default:
		return "unknown"
	}
}

var (
	contextType   = reflect.TypeFor[context.Context]()
	errorType     = reflect.TypeFor[error]()
	awaitableType = reflect.TypeFor[Awaitable]()
)

var emptyObjectSchema = json.RawMessage(`{"type":"object","additionalProperties":false}`)

// Callable is a Go function registered as a tool. Its kind and argument
// schema are fixed when it is created.
type Callable struct {
	name        string
	description string
	kind        Kind
	fn          reflect.Value
	in          reflect.Type // nil when the function takes no arguments
	params      json.RawMessage
	schema      *gojsonschema.Schema
}

// CallableOption configures a Callable.
type CallableOption func(*Callable)

// WithDescription sets the human-readable tool description.
func WithDescription(d string) CallableOption {
	return func(c *Callable) {
		c.description = d
	}
}

// NewCallable registers fn under name. Accepted shapes:
//
//	func(ctx context.Context) (R, error)
//	func(ctx context.Context, in T) (R, error)
//	func(ctx context.Context) A
//	func(ctx context.Context, in T) A
//
// where T is a struct or pointer to struct and A implements Awaitable.
func NewCallable(name string, fn any, opts ...CallableOption) (*Callable, error) {
	if err := mcpcli.ValidateToolName(name); err != nil {
		return nil, err
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("tool %q: not a function: %w", name, mcpcli.ErrValidation)
	}
	c := &Callable{name: name, fn: v}
	for _, opt := range opts {
		opt(c)
	}
	t := v.Type()
	kind, ok := classify(t)
	if !ok {
		return nil, fmt.Errorf("tool %q: unsupported signature %s: %w", name, t, mcpcli.ErrValidation)
	}
	c.kind = kind
	c.params = emptyObjectSchema
	if t.NumIn() == 2 {
		c.in = t.In(1)
		params, err := reflectSchema(c.in)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", name, err)
		}
		c.params = params
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(c.params))
	if err != nil {
		return nil, fmt.Errorf("tool %q: compile schema: %w", name, err)
	}
	c.schema = schema
	return c, nil
}

// MustCallable is like NewCallable but panics on error. It is meant for
// package-level tool tables.
func MustCallable(name string, fn any, opts ...CallableOption) *Callable {
	c, err := NewCallable(name, fn, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func classify(t reflect.Type) (Kind, bool) {
	if t.IsVariadic() || t.NumIn() < 1 || t.NumIn() > 2 || t.In(0) != contextType {
		return 0, false
	}
	if t.NumIn() == 2 && !isStructArg(t.In(1)) {
		return 0, false
	}
	switch {
	case t.NumOut() == 2 && t.Out(1) == errorType:
		return KindSync, true
	case t.NumOut() == 1 && t.Out(0).Implements(awaitableType):
		return KindSuspending, true
	default:
		return 0, false
	}
}

func isStructArg(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func reflectSchema(t reflect.Type) (json.RawMessage, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.ReflectFromType(t)
	s.Version = ""
	s.ID = ""
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return b, nil
}

// Name returns the tool name.
func (c *Callable) Name() string { return c.name }

// Kind returns whether the callable is sync or suspending.
func (c *Callable) Kind() Kind { return c.kind }

// Tool returns the descriptor advertised for the callable.
func (c *Callable) Tool() mcpcli.Tool {
	return mcpcli.Tool{
		Name:        c.name,
		Description: c.description,
		Mode:        mcpcli.ModeLocal,
		Parameters:  c.params,
	}
}

// Call validates args, binds them to the callable's parameter and runs it
// to completion.
func (c *Callable) Call(ctx context.Context, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if err := c.validate(args); err != nil {
		return nil, err
	}
	in := []reflect.Value{reflect.ValueOf(ctx)}
	if c.in != nil {
		arg, err := c.bind(args)
		if err != nil {
			return nil, err
		}
		in = append(in, arg)
	}

	out, err := c.call(in)
	if err != nil {
		return nil, err
	}

	if c.kind == KindSync {
		if e, _ := out[1].Interface().(error); e != nil {
			return nil, c.failed(e)
		}
		return out[0].Interface(), nil
	}

	aw, _ := out[0].Interface().(Awaitable)
	if aw == nil || (out[0].Kind() == reflect.Pointer && out[0].IsNil()) {
		return nil, c.failed(fmt.Errorf("returned nil awaitable"))
	}
	v, err := aw.Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("tool %q: %w", c.name, ctx.Err())
		}
		return nil, c.failed(err)
	}
	return v, nil
}

func (c *Callable) call(in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = c.failed(fmt.Errorf("panic: %v", r))
		}
	}()
	return c.fn.Call(in), nil
}

func (c *Callable) validate(args map[string]any) error {
	res, err := c.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("tool %q: %v: %w", c.name, err, mcpcli.ErrInvalidArguments)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("tool %q: %s: %w", c.name, strings.Join(msgs, "; "), mcpcli.ErrInvalidArguments)
	}
	return nil
}

func (c *Callable) bind(args map[string]any) (reflect.Value, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("tool %q: %v: %w", c.name, err, mcpcli.ErrInvalidArguments)
	}
	t := c.in
	ptr := t.Kind() == reflect.Pointer
	if ptr {
		t = t.Elem()
	}
	v := reflect.New(t)
	if err := json.Unmarshal(b, v.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("tool %q: %v: %w", c.name, err, mcpcli.ErrInvalidArguments)
	}
	if ptr {
		return v, nil
	}
	return v.Elem(), nil
}

func (c *Callable) failed(err error) error {
	return fmt.Errorf("tool %q: %w: %w", c.name, mcpcli.ErrToolFailed, err)
}
