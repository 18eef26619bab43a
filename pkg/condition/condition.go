// Package condition evaluates the boolean expressions carried by Conditional
// commands against a fixed, read-only snapshot of client state.
//
// Expressions are compiled with expr-lang and run against an explicit
// environment only; there is no access to ambient program state and no side
// effects. Any compile or runtime failure fails closed: the caller gets
// false plus the error for logging.
package condition

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Context is the read-only environment an expression may see: a user
// snapshot, a few derived predicates and whatever extras the host registers.
type Context struct {
	user   map[string]interface{}
	extras map[string]interface{}
}

// NewContext returns an empty context (no user, nothing logged in).
func NewContext() *Context {
	return &Context{
		user:   map[string]interface{}{},
		extras: map[string]interface{}{},
	}
}

// SetUser replaces the user snapshot. Expressions read it as `user.<field>`.
func (c *Context) SetUser(user map[string]interface{}) {
	if user == nil {
		user = map[string]interface{}{}
	}
	copied := make(map[string]interface{}, len(user))
	for k, v := range user {
		copied[k] = v
	}
	c.user = copied
}

// Set registers an extra named binding. Reserved names are rejected so hosts
// cannot shadow the built-in predicates.
func (c *Context) Set(name string, value interface{}) error {
	switch name {
	case "user", "is_logged_in", "is_admin", "is_empty":
		return fmt.Errorf("binding %q is reserved", name)
	}
	c.extras[name] = value
	return nil
}

// env builds the expression environment. The built-in bindings are always
// present so compiled programs can be cached per expression string; an extra
// binding missing at run time surfaces as a non-bool result and fails closed.
func (c *Context) env() map[string]interface{} {
	env := map[string]interface{}{
		"user":         c.user,
		"is_logged_in": boolField(c.user, "logged_in") || boolField(c.user, "is_logged_in"),
		"is_admin":     boolField(c.user, "is_admin"),
		"is_empty":     isEmpty,
	}
	for k, v := range c.extras {
		env[k] = v
	}
	return env
}

func boolField(m map[string]interface{}, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func isEmpty(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case map[string]interface{}:
		return len(x) == 0
	case []interface{}:
		return len(x) == 0
	}
	return false
}

// Evaluator compiles and runs condition expressions, caching compiled
// programs per expression string.
type Evaluator struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{cache: map[string]*vm.Program{}}
}

// Evaluate runs expression against ctx. On any failure it returns false and
// the error; it never panics into the caller.
func (e *Evaluator) Evaluate(expression string, ctx *Context) (ok bool, err error) {
	if expression == "" {
		return false, fmt.Errorf("empty condition expression")
	}
	if ctx == nil {
		ctx = NewContext()
	}

	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("eval condition %q: panic: %v", expression, r)
		}
	}()

	env := ctx.env()

	program, err := e.compile(expression, env)
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", expression, err)
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", expression, err)
	}
	result, isBool := output.(bool)
	if !isBool {
		return false, fmt.Errorf("condition %q did not return bool (got %T: %v)", expression, output, output)
	}
	return result, nil
}

func (e *Evaluator) compile(expression string, env map[string]interface{}) (*vm.Program, error) {
	e.mu.Lock()
	program, cached := e.cache[expression]
	e.mu.Unlock()
	if cached {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = program
	e.mu.Unlock()
	return program, nil
}
