package interpolate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var variablePattern = regexp.MustCompile(`^(::)?[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// Option configures an Interpolator.
type Option func(*Interpolator)

// WithEvaluator replaces the default expr evaluator. A nil evaluator turns
// expression tokens into ErrNoEvaluator failures.
func WithEvaluator(evaluator Evaluator) Option {
	return func(i *Interpolator) {
		i.evaluator = evaluator
		i.evaluatorSet = true
	}
}

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Interpolator) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Interpolator expands %{...} tokens. It is safe for concurrent use when its
// evaluator is.
type Interpolator struct {
	evaluator    Evaluator
	evaluatorSet bool
	logger       *zap.Logger
}

// New builds an Interpolator. Without WithEvaluator it evaluates expressions
// with expr, the default functions and a shared program cache.
func New(opts ...Option) *Interpolator {
	i := &Interpolator{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	if !i.evaluatorSet {
		i.evaluator = NewExprEvaluator(
			ExprWithProgramCache(NewMapCache()),
			ExprWithFunctionRegistry(DefaultFunctions()),
		)
	}
	return i
}

// NewEngine builds the evaluator registered under name.
func NewEngine(name string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		evaluator := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js requires the js_eval build tag", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("interpolate: unknown engine %q", name)
	}
}

// DefaultFunctions returns a registry holding the interpolation functions
// every engine understands:
//
//	literal(x)      yields x unchanged, e.g. %{literal('%')}
//	variable(name)  reads a scope variable the way %{name} does, e.g.
//	                %{variable('::fqdn')}; a missing variable yields ""
func DefaultFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("literal", 1, func(_ RuleContext, args ...any) (any, error) {
		return args[0], nil
	})
	_ = registry.Register("variable", 1, func(ctx RuleContext, args ...any) (any, error) {
		name, ok := args[0].(string)
		if !ok || !variablePattern.MatchString(name) {
			return nil, fmt.Errorf("interpolate: variable expects a variable name, got %v", args[0])
		}
		return lookupVariable(ctx.Scope, name), nil
	})
	return registry
}

// HasTokens reports whether text contains a %{ token opener.
func HasTokens(text string) bool {
	return strings.Contains(text, "%{")
}

// String expands every token in text. An unterminated "%{" is kept verbatim.
func (i *Interpolator) String(text string, ctx RuleContext) (string, error) {
	if !HasTokens(text) {
		return text, nil
	}
	var out strings.Builder
	rest := text
	for {
		start := strings.Index(rest, "%{")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+2:], "}")
		if end < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])
		token := strings.TrimSpace(rest[start+2 : start+2+end])
		value, err := i.expand(token, ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(render(value))
		rest = rest[start+2+end+1:]
	}
	return out.String(), nil
}

// Value walks strings, slices and string-keyed maps, expanding tokens in
// every string. Other values are returned unchanged.
func (i *Interpolator) Value(value any, ctx RuleContext) (any, error) {
	switch typed := value.(type) {
	case string:
		return i.String(typed, ctx)
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			expanded, err := i.Value(item, ctx)
			if err != nil {
				return nil, err
			}
			out[idx] = expanded
		}
		return out, nil
	case []string:
		out := make([]any, len(typed))
		for idx, item := range typed {
			expanded, err := i.String(item, ctx)
			if err != nil {
				return nil, err
			}
			out[idx] = expanded
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			expandedKey, err := i.String(key, ctx)
			if err != nil {
				return nil, err
			}
			expanded, err := i.Value(item, ctx)
			if err != nil {
				return nil, err
			}
			out[expandedKey] = expanded
		}
		return out, nil
	default:
		return value, nil
	}
}

func (i *Interpolator) expand(token string, ctx RuleContext) (any, error) {
	if token == "" {
		return "", nil
	}
	if variablePattern.MatchString(token) {
		return lookupVariable(ctx.Scope, token), nil
	}
	if i.evaluator == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoEvaluator, token)
	}
	start := time.Now()
	value, err := i.evaluator.Evaluate(ctx, token)
	i.logger.Debug("interpolation expression evaluated",
		zap.String("engine", engineName(i.evaluator)),
		zap.String("expr", token),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return nil, wrapEvaluationError(engineName(i.evaluator), token, ctx.scopeLabel(), err)
	}
	return value, nil
}

// lookupVariable resolves "name", "::name" and dotted paths into nested maps.
// Missing variables yield "".
func lookupVariable(scope map[string]any, name string) any {
	if value, ok := scope[name]; ok {
		return value
	}
	name = strings.TrimPrefix(name, "::")
	if value, ok := scope[name]; ok {
		return value
	}
	var current any = scope
	for _, segment := range strings.Split(name, ".") {
		mapping, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = mapping[segment]
		if !ok {
			return ""
		}
	}
	return current
}

func render(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func engineName(e Evaluator) string {
	switch fmt.Sprintf("%T", e) {
	case "*interpolate.exprEvaluator":
		return EngineExpr
	case "*interpolate.celEvaluator":
		return EngineCEL
	case "*interpolate.jsEvaluator":
		return EngineJS
	default:
		return "custom"
	}
}
