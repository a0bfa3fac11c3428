package lisp

import (
	"fmt"
	"math"
)

// specialForms can't be shadowed by definitions.
var specialForms map[string]procedure

func init() {
	specialForms = map[string]procedure{
		"if":     formIf,
		"eq":     formEq,
		"begin":  formBegin,
		"define": formDefine,
		"lambda": formLambda,
	}
}

func formIf(ev *Evaluator, sc *scope, args []expression) (Value, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("if expects 3 arguments, got %d", len(args))
	}

	cond, err := ev.evaluate(sc, args[0])
	if err != nil {
		return nil, err
	}

	if truthy(cond) {
		return ev.evaluate(sc, args[1])
	}
	return ev.evaluate(sc, args[2])
}

func formEq(ev *Evaluator, sc *scope, args []expression) (Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("eq expects 2 arguments, got %d", len(args))
	}

	vs, err := ev.values(sc, args)
	if err != nil {
		return nil, err
	}

	return equal(vs[0], vs[1]), nil
}

func formBegin(ev *Evaluator, sc *scope, args []expression) (Value, error) {
	var result Value
	for _, arg := range args {
		var err error
		if result, err = ev.evaluate(sc, arg); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func formDefine(ev *Evaluator, sc *scope, args []expression) (Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("define expects 2 arguments, got %d", len(args))
	}

	name, ok := args[0].(identifier)
	if !ok {
		return nil, fmt.Errorf("define expects an identifier")
	}

	v, err := ev.evaluate(sc, args[1])
	if err != nil {
		return nil, err
	}
	sc.set(name.name, v)

	return nil, nil
}

// formLambda accepts a single identifier or a list of identifiers as the
// parameters. The procedure closes over the scope it was defined in.
func formLambda(ev *Evaluator, sc *scope, args []expression) (Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("lambda expects 2 arguments, got %d", len(args))
	}

	var params []string
	switch p := args[0].(type) {
	case identifier:
		params = []string{p.name}
	case apply:
		for _, a := range p.args {
			id, ok := a.(identifier)
			if !ok {
				return nil, fmt.Errorf("lambda parameters must be identifiers")
			}
			params = append(params, id.name)
		}
	default:
		return nil, fmt.Errorf("lambda parameters must be identifiers")
	}
	body := args[1]

	fn := func(ev *Evaluator, caller *scope, args []expression) (Value, error) {
		if len(args) != len(params) {
			return nil, fmt.Errorf("procedure expects %d arguments, got %d", len(params), len(args))
		}

		vs, err := ev.values(caller, args)
		if err != nil {
			return nil, err
		}

		local := newScope(sc)
		for i, name := range params {
			local.set(name, vs[i])
		}

		ev.calls++
		defer func() { ev.calls-- }()
		if ev.calls > MaxCallDepth {
			return nil, ErrTooDeep
		}

		return ev.evaluate(local, body)
	}

	return procedure(fn), nil
}

// =============================================================================

// builtins evaluate all their arguments.
var builtins = map[string]procedure{
	"+":   arithmetic(func(a, b float64) float64 { return a + b }),
	"-":   arithmetic(func(a, b float64) float64 { return a - b }),
	"*":   arithmetic(func(a, b float64) float64 { return a * b }),
	"<":   comparison(func(a, b float64) bool { return a < b }),
	">":   comparison(func(a, b float64) bool { return a > b }),
	"not": not,
}

func numbers(ev *Evaluator, sc *scope, args []expression) ([]float64, error) {
	vs, err := ev.values(sc, args)
	if err != nil {
		return nil, err
	}

	ns := make([]float64, len(vs))
	for i, v := range vs {
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("argument %d: expected a number, got %T", i, v)
		}
		ns[i] = n
	}
	return ns, nil
}

func arithmetic(op func(a, b float64) float64) procedure {
	return func(ev *Evaluator, sc *scope, args []expression) (Value, error) {
		ns, err := numbers(ev, sc, args)
		if err != nil {
			return nil, err
		}
		if len(ns) == 0 {
			return nil, fmt.Errorf("expected at least 1 argument")
		}

		result := ns[0]
		for _, n := range ns[1:] {
			result = op(result, n)
			if math.IsInf(result, 0) || math.IsNaN(result) {
				return nil, ErrNotFinite
			}
		}
		return result, nil
	}
}

func comparison(op func(a, b float64) bool) procedure {
	return func(ev *Evaluator, sc *scope, args []expression) (Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}

		ns, err := numbers(ev, sc, args)
		if err != nil {
			return nil, err
		}
		return op(ns[0], ns[1]), nil
	}
}

func not(ev *Evaluator, sc *scope, args []expression) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("not expects 1 argument, got %d", len(args))
	}

	v, err := ev.evaluate(sc, args[0])
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

// =============================================================================

func storageBuiltins(env Environment) map[string]procedure {
	key := func(ev *Evaluator, sc *scope, arg expression) (string, error) {
		v, err := ev.evaluate(sc, arg)
		if err != nil {
			return "", err
		}
		k, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("storage key must be a string, got %T", v)
		}
		return k, nil
	}

	return map[string]procedure{
		"set-storage!": func(ev *Evaluator, sc *scope, args []expression) (Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("set-storage! expects 2 arguments, got %d", len(args))
			}
			k, err := key(ev, sc, args[0])
			if err != nil {
				return nil, err
			}
			v, err := ev.evaluate(sc, args[1])
			if err != nil {
				return nil, err
			}
			if !isData(v) {
				return nil, fmt.Errorf("can't store %v (%T)", v, v)
			}
			env.SetStorage(k, v)
			return nil, nil
		},
		"get-storage": func(ev *Evaluator, sc *scope, args []expression) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("get-storage expects 1 argument, got %d", len(args))
			}
			k, err := key(ev, sc, args[0])
			if err != nil {
				return nil, err
			}
			v, _ := env.GetStorage(k)
			return v, nil
		},
		"has-storage": func(ev *Evaluator, sc *scope, args []expression) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("has-storage expects 1 argument, got %d", len(args))
			}
			k, err := key(ev, sc, args[0])
			if err != nil {
				return nil, err
			}
			_, exists := env.GetStorage(k)
			return exists, nil
		},
	}
}
