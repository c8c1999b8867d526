//go:build js_eval

package interpolate

import (
	"strings"
	"testing"
)

func TestJSEvaluator(t *testing.T) {
	registry := NewFunctionRegistry()
	_ = registry.Register("shout", 1, func(_ RuleContext, args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	})
	cache := NewMapCache()
	evaluator := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))

	got, err := evaluator.Evaluate(webScope(), "environment === 'production' ? shout(fqdn) : 'dev'")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != "WEB1.EXAMPLE.COM" {
		t.Fatalf("unexpected result %v", got)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected cached program, got %d", cache.Len())
	}

	interp := New(WithEvaluator(evaluator))
	expanded, err := interp.String("os/%{scope.facts.os.family.toLowerCase()}", webScope())
	if err != nil {
		t.Fatalf("interpolate: %v", err)
	}
	if expanded != "os/debian" {
		t.Fatalf("unexpected expansion %q", expanded)
	}
}
