package session

import (
	"context"
	"strings"

	"github.com/fwojciec/mcpcli"
	"github.com/tidwall/gjson"
)

// Decision is the model's answer to "does this request need a tool".
type Decision struct {
	UseTool   bool
	ToolName  string
	Arguments map[string]any
}

const decisionInstructions = `You decide whether a tool is needed to answer the user's request.
If one is, reply with a JSON object only, without extra text, in the form:
{"use_tool": true, "tool_name": "<tool name>", "arguments": {"<parameter>": <value>}}
If no tool is necessary, reply with: {"use_tool": false}`

// DecisionPrompt builds the prompt asking the model to pick a tool for
// request from tools.
func DecisionPrompt(tools []mcpcli.Tool, request string) string {
	var b strings.Builder
	b.WriteString(decisionInstructions)
	b.WriteString("\nAvailable tools:\n")
	for _, t := range tools {
		b.WriteString(t.Name)
		b.WriteString(": ")
		b.WriteString(t.Description)
		if len(t.Parameters) > 0 {
			b.WriteString(" Parameters: ")
			b.Write(t.Parameters)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nUser: ")
	b.WriteString(request)
	return b.String()
}

// ParseDecision extracts the outermost JSON object from text, which may be
// wrapped in prose or code fences. It reports false when no object is
// found or the object asks for a tool without naming one.
func ParseDecision(text string) (Decision, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return Decision{}, false
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return Decision{}, false
	}
	r := gjson.Parse(raw)
	d := Decision{
		UseTool:  r.Get("use_tool").Bool(),
		ToolName: strings.TrimSpace(r.Get("tool_name").String()),
	}
	if args := r.Get("arguments"); args.IsObject() {
		d.Arguments, _ = args.Value().(map[string]any)
	}
	if d.UseTool && d.ToolName == "" {
		return Decision{}, false
	}
	return d, true
}

// orchestrate asks the model for a tool decision, runs the chosen tool and
// generates the answer from the history including the tool turn. Without a
// usable decision it falls back to plain generation.
func (l *Loop) orchestrate(ctx context.Context, t *turn, request string) {
	resp, err := l.complete(ctx, mcpcli.GenerateRequest{
		Model:  l.model,
		Prompt: DecisionPrompt(l.tools.Tools(), request),
	}, nil)
	if err != nil {
		t.add(generationError(l.model, err))
		return
	}
	d, ok := ParseDecision(resp.Text)
	l.logger.Debug().
		Bool("parsed", ok).
		Bool("use_tool", d.UseTool).
		Str("tool", d.ToolName).
		Msg("tool decision")
	if ok && d.UseTool {
		t.emit(mcpcli.EventNotice{Text: "Using tool " + d.ToolName})
		t.add(l.invoke(ctx, d.ToolName, d.Arguments))
	}
	t.add(l.generate(ctx, t, t.conversation(), l.stream))
}
