package local

import (
	"fmt"
	"plugin"
	"reflect"
	"strings"
	"unicode"

	"github.com/fwojciec/mcpcli"
)

// Describer is implemented by modules that provide tool descriptions,
// keyed by tool name.
type Describer interface {
	ToolDescriptions() map[string]string
}

// FromModule registers every exported method of module whose signature is
// a tool shape. Method names are mapped to snake_case tool names, so
// ListAlgorithms becomes list_algorithms. Other methods are ignored.
func FromModule(module any, opts ...Option) (*Source, error) {
	v := reflect.ValueOf(module)
	if !v.IsValid() {
		return nil, fmt.Errorf("nil module: %w", mcpcli.ErrValidation)
	}
	var descs map[string]string
	if d, ok := module.(Describer); ok {
		descs = d.ToolDescriptions()
	}
	t := v.Type()
	var callables []*Callable
	for i := range t.NumMethod() {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}
		fn := v.Method(i)
		if _, ok := classify(fn.Type()); !ok {
			continue
		}
		name := snakeCase(m.Name)
		c, err := NewCallable(name, fn.Interface(), WithDescription(descs[name]))
		if err != nil {
			return nil, err
		}
		callables = append(callables, c)
	}
	if len(callables) == 0 {
		return nil, fmt.Errorf("module %s exports no tools: %w", t, mcpcli.ErrValidation)
	}
	return New(callables, opts...)
}

// ModuleSymbol is the symbol Open looks up in a plugin.
const ModuleSymbol = "Module"

// Open loads the Go plugin at path and registers the methods of its
// exported Module variable.
func Open(path string, opts ...Option) (*Source, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin %s: %w", path, err)
	}
	sym, err := p.Lookup(ModuleSymbol)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", path, err)
	}
	return FromModule(sym, opts...)
}

func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1])
				acronymEnd := unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || acronymEnd {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
