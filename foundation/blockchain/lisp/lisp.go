// Package lisp implements the small lisp dialect used to write contracts.
// Evaluation is metered: every evaluated expression costs one step and a
// program that uses up its step budget is aborted.
package lisp

import (
	"errors"
	"fmt"
	"math"
)

// Set of error variables for evaluating programs.
var (
	ErrStepBudgetExceeded = errors.New("step budget exceeded")
	ErrTooDeep            = errors.New("expression nested too deep")
	ErrNotFinite          = errors.New("number out of range")
)

// Limits on the shape of a program, independent of the step budget.
const (
	MaxDepth     = 256  // Nesting of parentheses in the source.
	MaxCallDepth = 1024 // Procedure calls in flight.
)

// Unlimited represents a step budget that is never exhausted.
const Unlimited = math.MaxInt

// Value is the result of evaluating an expression. Data values are nil,
// bool, float64 and string. Procedures are values too but can't be stored.
type Value = any

// Environment provides the storage a program can read and write.
type Environment interface {
	GetStorage(key string) (Value, bool)
	SetStorage(key string, value Value)
}

// Evaluate runs the source with the environment and returns the value of
// the last top level expression.
func Evaluate(source string, env Environment, maxSteps int) (Value, error) {
	return New(env, maxSteps).Run(source)
}

// =============================================================================

// procedure receives its arguments unevaluated so special forms and regular
// functions share one shape.
type procedure func(ev *Evaluator, sc *scope, args []expression) (Value, error)

// scope binds names to values and falls back to its parent.
type scope struct {
	parent *scope
	values map[string]Value
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, values: make(map[string]Value)}
}

func (s *scope) get(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, exists := cur.values[name]; exists {
			return v, true
		}
	}
	return nil, false
}

func (s *scope) set(name string, value Value) {
	s.values[name] = value
}

// =============================================================================

// Evaluator runs programs against one environment. Definitions and the step
// count are kept between calls to Run and Call.
type Evaluator struct {
	global   *scope
	steps    int
	maxSteps int
	calls    int
}

// New constructs an evaluator. The storage builtins are only available when
// an environment is provided.
func New(env Environment, maxSteps int) *Evaluator {
	ev := Evaluator{
		global:   newScope(nil),
		maxSteps: maxSteps,
	}

	for name, fn := range builtins {
		ev.global.set(name, fn)
	}

	if env != nil {
		for name, fn := range storageBuiltins(env) {
			ev.global.set(name, fn)
		}
	}

	return &ev
}

// Steps returns the number of steps used so far.
func (ev *Evaluator) Steps() int {
	return ev.steps
}

// Run evaluates every top level expression of the source in order and
// returns the value of the last one.
func (ev *Evaluator) Run(source string) (Value, error) {
	exprs, err := parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var result Value
	for _, expr := range exprs {
		if result, err = ev.evaluate(ev.global, expr); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Call applies the procedure bound to name with the data values as its
// arguments.
func (ev *Evaluator) Call(name string, args ...Value) (Value, error) {
	exprs := make([]expression, 0, len(args)+1)
	exprs = append(exprs, identifier{name: name})

	for i, arg := range args {
		if !isData(arg) {
			return nil, fmt.Errorf("argument %d: unsupported type %T", i, arg)
		}
		exprs = append(exprs, literal{value: arg})
	}

	return ev.evaluate(ev.global, apply{args: exprs})
}

func (ev *Evaluator) evaluate(sc *scope, expr expression) (Value, error) {
	ev.steps++
	if ev.steps >= ev.maxSteps {
		return nil, ErrStepBudgetExceeded
	}

	switch e := expr.(type) {
	case apply:
		if len(e.args) == 0 {
			return nil, errors.New("can't evaluate '()'")
		}

		head, err := ev.evaluate(sc, e.args[0])
		if err != nil {
			return nil, err
		}

		proc, ok := head.(procedure)
		if !ok {
			return nil, fmt.Errorf("%v is not a procedure", head)
		}

		return proc(ev, sc, e.args[1:])

	case identifier:
		if form, exists := specialForms[e.name]; exists {
			return form, nil
		}

		v, exists := sc.get(e.name)
		if !exists {
			return nil, fmt.Errorf("unknown symbol %s", e.name)
		}
		return v, nil

	case literal:
		return e.value, nil
	}

	return nil, fmt.Errorf("unknown expression %T", expr)
}

// values evaluates every argument in order.
func (ev *Evaluator) values(sc *scope, args []expression) ([]Value, error) {
	vs := make([]Value, len(args))
	for i, arg := range args {
		v, err := ev.evaluate(sc, arg)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

// =============================================================================

// isData reports if the value can be stored or passed to a call. Numbers
// must be finite.
func isData(v Value) bool {
	switch t := v.(type) {
	case nil, bool, string:
		return true
	case float64:
		return !math.IsInf(t, 0) && !math.IsNaN(t)
	}
	return false
}

// truthy treats nil, false, 0 and "" as false.
func truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}

// equal compares data values by type and value. Procedures are never equal.
func equal(a, b Value) bool {
	if !isData(a) || !isData(b) {
		return false
	}
	return a == b
}
