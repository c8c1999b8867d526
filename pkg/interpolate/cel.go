package interpolate

import (
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELOption configures the CEL evaluator.
type CELOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Scope variables
// are declared as dyn, so expressions are checked per set of variable names.
func NewCELEvaluator(opts ...CELOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	ctx = ctx.withDefaults()
	variables := ctx.variables()
	checked, err := e.loadOrCompile(expression, variables)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	program, err := checked.program(e.bindings(ctx)...)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	out, _, err := program.Eval(e.activation(ctx, variables))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	return out.Value(), nil
}

// Compile checks expression against an empty scope; it is checked again per
// variable set when evaluated.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	if _, err := e.loadOrCompile(expression, nil); err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	return &celCompiledRule{evaluator: e, expression: expression}, nil
}

// celChecked is a type-checked expression. Programs are planned from it per
// evaluation because call() is bound to the evaluation's RuleContext.
type celChecked struct {
	env *celgo.Env
	ast *celgo.Ast
}

func (c *celChecked) program(overloads ...*functions.Overload) (celgo.Program, error) {
	if len(overloads) == 0 {
		return c.env.Program(c.ast)
	}
	return c.env.Program(c.ast, celgo.Functions(overloads...))
}

func (e *celEvaluator) loadOrCompile(expression string, variables map[string]any) (*celChecked, error) {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	sort.Strings(names)
	key := "cel:" + strings.Join(names, ",") + ":" + expression

	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if checked, ok := cached.(*celChecked); ok {
				return checked, nil
			}
		}
	}

	env, err := e.buildEnv(names)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked := &celChecked{env: env, ast: ast}
	if e.cache != nil {
		e.cache.Set(key, checked)
	}
	return checked, nil
}

func (e *celEvaluator) buildEnv(names []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("scope", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("context", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	if e.registry != nil {
		// Declarations only; implementations come from bindings.
		opts = append(opts, celgo.Function("call",
			celgo.Overload(celCallUnary, []*celgo.Type{celgo.StringType}, celgo.DynType),
			celgo.Overload(celCallList, []*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)}, celgo.DynType),
		))
	}
	for _, name := range names {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

const (
	celCallUnary = "call_string"
	celCallList  = "call_string_list"
)

func (e *celEvaluator) bindings(ctx RuleContext) []*functions.Overload {
	if e.registry == nil {
		return nil
	}
	return []*functions.Overload{
		{
			Operator: celCallUnary,
			Unary: func(name ref.Val) ref.Val {
				return e.call(ctx, name, nil)
			},
		},
		{
			Operator: celCallList,
			Binary: func(name, args ref.Val) ref.Val {
				return e.call(ctx, name, args)
			},
		},
	}
}

func (e *celEvaluator) activation(ctx RuleContext, variables map[string]any) map[string]any {
	activation := map[string]any{
		"now":     ctx.timestamp(),
		"scope":   ctx.Scope,
		"context": ctx.Context,
		"args":    ctx.Args,
	}
	for key, value := range variables {
		activation[key] = value
	}
	return activation
}

func (e *celEvaluator) call(ctx RuleContext, nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("interpolate: call name must be string")
	}
	var args []any
	if argsVal != nil {
		lister, ok := argsVal.(traits.Lister)
		if !ok {
			return types.NewErr("interpolate: call arguments must be a list")
		}
		size, _ := lister.Size().(types.Int)
		for i := types.Int(0); i < size; i++ {
			args = append(args, lister.Get(i).Value())
		}
	}
	result, err := e.registry.Call(ctx, name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}
