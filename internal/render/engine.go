package render

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"snipd/internal/extension"
	"snipd/internal/logging"
	"snipd/internal/metrics"
)

var (
	// ErrUnknownExtension is returned for a variable whose type has no
	// registered extension.
	ErrUnknownExtension = errors.New("render: unknown extension")

	// ErrDuplicateVariable is returned for templates declaring a variable
	// name twice.
	ErrDuplicateVariable = errors.New("render: duplicate variable")
)

// Variable binds a name to one extension invocation.
type Variable struct {
	Name   string           `yaml:"name" json:"name"`
	Type   string           `yaml:"type" json:"type"`
	Params extension.Params `yaml:"params" json:"params,omitempty"`
}

// Template is the static replacement text plus the ordered variables it
// references as {{name}} or {{name.field}}.
type Template struct {
	Replace string     `yaml:"replace" json:"replace"`
	Vars    []Variable `yaml:"vars" json:"vars,omitempty"`
}

// Error reports the variable that aborted a render pass.
type Error struct {
	Variable  string
	Extension string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render variable %q (%s): %v", e.Variable, e.Extension, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// placeholder matches {{name}}, {{name.field}} and positional $N$ tokens.
var placeholder = regexp.MustCompile(`\{\{\s*([\w-]+)(?:\.([\w-]+))?\s*\}\}|\$\d+\$`)

// Engine runs render passes. It holds no per-pass state and can serve
// concurrent passes from different goroutines.
type Engine struct {
	registry *extension.Registry
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// NewEngine creates an engine over registry. log and m may be nil.
func NewEngine(registry *extension.Registry, log *logging.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = logging.Component("render")
	}
	return &Engine{registry: registry, log: log, metrics: m}
}

// RenderExtension invokes the extension registered as name once.
func (e *Engine) RenderExtension(name string, params extension.Params, args []string, scope extension.Scope) (extension.Result, error) {
	ext, ok := e.registry.Lookup(name)
	if !ok {
		e.observeCall(name, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %s", ErrUnknownExtension, name)
	}
	if params == nil {
		params = extension.Params{}
	}

	res, err := ext.Calculate(params, args, scope)
	switch {
	case err != nil:
		e.observeCall(name, metrics.OutcomeError)
		return nil, err
	case res == nil:
		e.observeCall(name, metrics.OutcomeEmpty)
	default:
		e.observeCall(name, metrics.OutcomeValue)
	}
	return res, nil
}

// Render evaluates tmpl's variables in declaration order and returns the
// expanded text. Positional args are applied to the replacement text and
// passed to every extension. On any failure no text is returned.
func (e *Engine) Render(ctx context.Context, tmpl Template, args []string) (string, error) {
	start := time.Now()
	out, err := e.render(ctx, tmpl, args)

	if e.metrics != nil {
		e.metrics.RenderDuration.Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		e.metrics.RenderPasses.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		e.log.Error("render failed", "error", err)
		return "", err
	}
	return out, nil
}

func (e *Engine) render(ctx context.Context, tmpl Template, args []string) (string, error) {
	declared := make(map[string]bool, len(tmpl.Vars))
	for _, v := range tmpl.Vars {
		if declared[v.Name] {
			return "", fmt.Errorf("%w: %s", ErrDuplicateVariable, v.Name)
		}
		declared[v.Name] = true
	}

	pass := NewContext()
	for _, v := range tmpl.Vars {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		res, err := e.RenderExtension(v.Type, v.Params, args, pass)
		if err != nil {
			return "", &Error{Variable: v.Name, Extension: v.Type, Err: err}
		}
		if res == nil {
			e.log.Debug("variable produced no value", "variable", v.Name, "extension", v.Type)
			continue
		}
		if err := pass.set(v.Name, res); err != nil {
			return "", err
		}
	}

	return expand(tmpl.Replace, args, pass, declared), nil
}

// expand substitutes {{name}}, {{name.field}} and $N$ placeholders in one
// pass over the template text; substituted values are never scanned again.
// Declared variables without a value render as ""; undeclared names and
// positions without an argument are left as written.
func expand(text string, args []string, pass *Context, declared map[string]bool) string {
	return placeholder.ReplaceAllStringFunc(text, func(token string) string {
		if token[0] == '$' {
			return extension.RenderArgs(token, args)
		}
		m := placeholder.FindStringSubmatch(token)
		name, field := m[1], m[2]
		if !declared[name] {
			return token
		}

		res, ok := pass.Lookup(name)
		if !ok {
			return ""
		}
		if field == "" {
			return res.String()
		}
		if multi, ok := res.(extension.Multiple); ok {
			v, _ := multi.Field(field)
			return v
		}
		return ""
	})
}

func (e *Engine) observeCall(name, outcome string) {
	if e.metrics != nil {
		e.metrics.ExtensionCalls.WithLabelValues(name, outcome).Inc()
	}
}
