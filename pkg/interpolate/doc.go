// Package interpolate expands %{...} tokens found in lookup answers and
// datasource names.
//
// A token holding a plain variable name ("%{fqdn}" or "%{::fqdn}") is read
// straight from the scope; a missing variable expands to the empty string.
// Any other token is treated as an expression and handed to an Evaluator:
//
//	expr   github.com/expr-lang/expr (default)
//	cel    github.com/google/cel-go
//	js     github.com/dop251/goja, only with the js_eval build tag
//
// Expressions see every scope variable by name plus the bindings "scope",
// "context", "args" and "now". Functions registered in a FunctionRegistry are
// callable by name (expr, js) or through call(name, [args]) (cel).
package interpolate
