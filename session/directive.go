package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/mcpcli"
	"github.com/google/shlex"
	"github.com/tidwall/gjson"
)

// Kind identifies what an operator input asks for.
type Kind int

const (
	KindPrompt    Kind = iota // Free text for the generation endpoint.
	KindTool                  // /tool <name> [args]
	KindResource              // /resource <name>
	KindResources             // /resources
	KindTools                 // /tools
	KindHelp                  // /help
	KindRetry                 // /retry
	KindExit                  // /quit or /exit
)

// Directive is a parsed operator input.
type Directive struct {
	Kind Kind
	// Text is the prompt for KindPrompt and the raw input otherwise.
	Text string
	// Name is the tool or resource name.
	Name string
	Args map[string]any
	// Raw holds key=value arguments exactly as typed, so they can be
	// retyped against the tool's schema. It is nil for JSON arguments.
	Raw map[string]string
	// Err is set when a /tool directive names a tool but its arguments
	// cannot be parsed. The directive is still a tool turn.
	Err error
}

const helpText = `Commands:
  /tool <name> [args]   invoke a tool; args are a JSON object or key=value pairs
  /tools                list available tools
  /resources            list resource documents
  /resource <name>      show a resource document
  /retry                repeat the last request
  /help                 show this help
  /quit, /exit          end the session
Anything else is sent to the model.`

// Parse classifies input. Unknown slash commands are sent to the model as
// ordinary text. A /tool or /resource without a name is KindHelp.
func Parse(input string) Directive {
	text := strings.TrimSpace(input)
	if !strings.HasPrefix(text, "/") {
		return Directive{Kind: KindPrompt, Text: text}
	}
	cmd, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	d := Directive{Text: text}
	switch cmd {
	case "/quit", "/exit":
		d.Kind = KindExit
	case "/help":
		d.Kind = KindHelp
	case "/tools":
		d.Kind = KindTools
	case "/resources":
		d.Kind = KindResources
	case "/retry":
		d.Kind = KindRetry
	case "/resource":
		if rest == "" {
			d.Kind = KindHelp
			break
		}
		d.Kind = KindResource
		d.Name = rest
	case "/tool":
		name, args, _ := strings.Cut(rest, " ")
		if name == "" {
			d.Kind = KindHelp
			break
		}
		d.Kind = KindTool
		d.Name = name
		d.Args, d.Raw, d.Err = parseArgs(args)
	default:
		return Directive{Kind: KindPrompt, Text: text}
	}
	return d
}

// ParseArgs reads tool arguments given either as one JSON object or as
// key=value pairs split with shell quoting rules. Pair values are decoded
// as JSON when they are valid JSON and kept as strings otherwise.
func ParseArgs(s string) (map[string]any, error) {
	args, _, err := parseArgs(s)
	return args, err
}

func parseArgs(s string) (map[string]any, map[string]string, error) {
	s = strings.TrimSpace(s)
	args := map[string]any{}
	if s == "" {
		return args, nil, nil
	}
	if strings.HasPrefix(s, "{") {
		if !gjson.Valid(s) {
			return nil, nil, fmt.Errorf("arguments are not valid JSON: %w", mcpcli.ErrInvalidArguments)
		}
		m, ok := gjson.Parse(s).Value().(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("arguments must be a JSON object: %w", mcpcli.ErrInvalidArguments)
		}
		return m, nil, nil
	}
	words, err := shlex.Split(s)
	if err != nil {
		return nil, nil, fmt.Errorf("arguments: %v: %w", err, mcpcli.ErrInvalidArguments)
	}
	raw := make(map[string]string, len(words))
	for _, pair := range words {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, nil, fmt.Errorf("argument %q is not key=value: %w", pair, mcpcli.ErrInvalidArguments)
		}
		raw[k] = v
		if gjson.Valid(v) {
			args[k] = gjson.Parse(v).Value()
		} else {
			args[k] = v
		}
	}
	return args, raw, nil
}

// Retype replaces pair values with their raw text wherever the schema
// declares the property as a string, so name=2024 stays "2024".
func Retype(args map[string]any, raw map[string]string, schema json.RawMessage) map[string]any {
	if len(raw) == 0 || len(schema) == 0 {
		return args
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	gjson.GetBytes(schema, "properties").ForEach(func(key, prop gjson.Result) bool {
		if v, ok := raw[key.String()]; ok && prop.Get("type").String() == "string" {
			out[key.String()] = v
		}
		return true
	})
	return out
}
