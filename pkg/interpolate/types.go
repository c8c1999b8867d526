package interpolate

import (
	"regexp"
	"time"
)

// RuleContext carries the bindings available to an expression.
type RuleContext struct {
	// Scope holds the node variables being looked up.
	Scope map[string]any
	// Context holds per-lookup host state.
	Context map[string]any
	Args    map[string]any
	Now     *time.Time
}

// Evaluator evaluates expressions against a RuleContext.
type Evaluator interface {
	Evaluate(ctx RuleContext, expression string) (any, error)
	Compile(expression string) (CompiledRule, error)
}

// CompiledRule is an expression prepared once and evaluated many times.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

func (c RuleContext) withDefaults() RuleContext {
	if c.Now == nil {
		now := time.Now().UTC()
		c.Now = &now
	}
	if c.Scope == nil {
		c.Scope = map[string]any{}
	}
	if c.Context == nil {
		c.Context = map[string]any{}
	}
	if c.Args == nil {
		c.Args = map[string]any{}
	}
	return c
}

func (c RuleContext) timestamp() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return *c.Now
}

// variables returns the scope entries usable as bare identifiers.
func (c RuleContext) variables() map[string]any {
	out := make(map[string]any, len(c.Scope))
	for key, value := range c.Scope {
		if identifierPattern.MatchString(key) && !reservedBinding(key) {
			out[key] = value
		}
	}
	return out
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func reservedBinding(name string) bool {
	switch name {
	case "scope", "context", "args", "now", "call":
		return true
	}
	return false
}

// scopeLabel names the datasource being interpolated, when the host recorded
// one under Context["source"].
func (c RuleContext) scopeLabel() string {
	if label, ok := c.Context["source"].(string); ok {
		return label
	}
	return ""
}
