package lisp_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/tcoin/blockchain/foundation/blockchain/lisp"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// storage is an environment backed by a map.
type storage map[string]lisp.Value

func (s storage) GetStorage(key string) (lisp.Value, bool) {
	v, exists := s[key]
	return v, exists
}

func (s storage) SetStorage(key string, value lisp.Value) {
	s[key] = value
}

func TestEvaluate(t *testing.T) {
	type table struct {
		name   string
		source string
		exp    lisp.Value
	}

	tt := []table{
		{name: "literal", source: `"foo"`, exp: "foo"},
		{name: "comparison", source: `(eq 1 1)`, exp: true},
		{name: "string comparison", source: `(if (eq "foo" "foo") "foo" "bar")`, exp: "foo"},
		{name: "conditional true", source: `(if (eq 1 1) 2 3)`, exp: 2.0},
		{name: "conditional false", source: `(if (eq 1 2) 2 3)`, exp: 3.0},
		{name: "sequence", source: `(begin 1 2 3)`, exp: 3.0},
		{name: "define", source: `(begin (define x 4) x)`, exp: 4.0},
		{name: "lambda", source: `(begin (define eq2 (lambda (x) (eq x 2))) (eq2 2))`, exp: true},
		{name: "top level forms", source: `(define x 4) (define y 0.5) (* x y)`, exp: 2.0},
		{name: "arithmetic", source: `(- (+ 1 2 3) (* 2 2))`, exp: 2.0},
		{name: "not", source: `(not (< 2 1))`, exp: true},
		{
			name: "local names",
			source: `
				(begin
					(define eq2 (lambda (x) (eq x 2)))
					(define x 5)
					(eq2 2)
					x)`,
			exp: 5.0,
		},
		{
			name: "recursion",
			source: `
				(begin
					(define fact (lambda (n) (if (< n 2) 1 (* n (fact (- n 1))))))
					(fact 5))`,
			exp: 120.0,
		},
	}

	t.Log("Given the need to evaluate programs.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s program.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got, err := lisp.Evaluate(tst.source, nil, lisp.Unlimited)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to evaluate the program: %s", failed, testID, err)
					}

					if got != tst.exp {
						t.Logf("\t\tTest %d:\tgot: %v", testID, got)
						t.Logf("\t\tTest %d:\texp: %v", testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right value.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right value.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	tt := []string{
		`(eq 1 1`,
		`)`,
		`"open`,
		`(undefined 1)`,
		`(1 2)`,
		`(define 1 2)`,
		`(+ "a" 1)`,
		`#`,
		``,
	}

	t.Log("Given the need to reject broken programs.")
	{
		for testID, source := range tt {
			if _, err := lisp.Evaluate(source, storage{}, lisp.Unlimited); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to evaluate %q.", failed, testID, source)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to evaluate %q.", success, testID, source)
		}
	}
}

func TestStorage(t *testing.T) {
	t.Log("Given the need to interact with contract storage.")
	{
		t.Logf("\tTest 0:\tWhen writing to storage.")
		{
			env := storage{}
			if _, err := lisp.Evaluate(`(set-storage! "foo" 5)`, env, lisp.Unlimited); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write to storage: %s", failed, err)
			}

			if env["foo"] != 5.0 {
				t.Fatalf("\t%s\tTest 0:\tShould find the value in storage, got %v.", failed, env["foo"])
			}
			t.Logf("\t%s\tTest 0:\tShould find the value in storage.", success)

			if _, err := lisp.Evaluate(`(set-storage! "foo" 5)`, nil, lisp.Unlimited); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not have storage without an environment.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not have storage without an environment.", success)
		}

		t.Logf("\tTest 1:\tWhen running a register once contract.")
		{
			const code = `
				(begin
					(define register-value!
						(lambda (key value)
							(if (has-storage key)
								0                           ; we already have our value
								(set-storage! key value)))) ; we can set the new value
					(register-value! "foo" 5)
					(register-value! "foo" 3)
					(get-storage "foo"))`

			got, err := lisp.Evaluate(code, storage{}, lisp.Unlimited)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to run the contract: %s", failed, err)
			}

			if got != 5.0 {
				t.Fatalf("\t%s\tTest 1:\tShould keep the first registered value, got %v.", failed, got)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the first registered value.", success)
		}

		t.Logf("\tTest 2:\tWhen calling a defined procedure.")
		{
			env := storage{}
			ev := lisp.New(env, lisp.Unlimited)

			if _, err := ev.Run(`(define store! (lambda (key value) (set-storage! key value)))`); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to load the code: %s", failed, err)
			}

			if _, err := ev.Call("store!", "name", "bill"); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to call the procedure: %s", failed, err)
			}

			if env["name"] != "bill" {
				t.Fatalf("\t%s\tTest 2:\tShould find the argument in storage, got %v.", failed, env["name"])
			}
			t.Logf("\t%s\tTest 2:\tShould find the argument in storage.", success)

			if _, err := ev.Call("store!", "name", []string{"bill"}); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould reject arguments that are not data.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject arguments that are not data.", success)
		}
	}
}

func TestStepBudget(t *testing.T) {
	t.Log("Given the need to bound the work of a program.")
	{
		t.Logf("\tTest 0:\tWhen running out of steps.")
		{
			if _, err := lisp.Evaluate(`(eq 1 1)`, nil, 0); !errors.Is(err, lisp.ErrStepBudgetExceeded) {
				t.Fatalf("\t%s\tTest 0:\tShould fail with no steps: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail with no steps.", success)

			got, err := lisp.Evaluate(`(eq 1 1)`, nil, 10)
			if err != nil || got != true {
				t.Fatalf("\t%s\tTest 0:\tShould complete within 10 steps: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould complete within 10 steps.", success)

			const loop = `(begin (define loop (lambda (n) (loop n))) (loop 1))`
			ev := lisp.New(nil, 1_000)
			if _, err := ev.Run(loop); !errors.Is(err, lisp.ErrStepBudgetExceeded) {
				t.Fatalf("\t%s\tTest 0:\tShould stop an endless loop: %v", failed, err)
			}
			if ev.Steps() != 1_000 {
				t.Fatalf("\t%s\tTest 0:\tShould stop at the budget, used %d steps.", failed, ev.Steps())
			}
			t.Logf("\t%s\tTest 0:\tShould stop an endless loop.", success)
		}
	}
}

func TestLimits(t *testing.T) {
	big := "(* " + strings.Repeat("999999999 ", 40) + ")"

	t.Log("Given the need to keep programs within the limits of the machine.")
	{
		t.Logf("\tTest 0:\tWhen arithmetic leaves the range of a number.")
		{
			if _, err := lisp.Evaluate(big, nil, lisp.Unlimited); !errors.Is(err, lisp.ErrNotFinite) {
				t.Fatalf("\t%s\tTest 0:\tShould fail on overflow: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail on overflow.", success)

			env := storage{}
			if _, err := lisp.Evaluate(`(set-storage! "x" `+big+`)`, env, lisp.Unlimited); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not store an overflowed value.", failed)
			}
			if _, exists := env["x"]; exists {
				t.Fatalf("\t%s\tTest 0:\tShould leave the storage untouched.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not store an overflowed value.", success)

			ev := lisp.New(env, lisp.Unlimited)
			if _, err := ev.Run(`(define store! (lambda (v) (set-storage! "x" v)))`); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the code: %s", failed, err)
			}
			for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
				if _, err := ev.Call("store!", v); err == nil {
					t.Fatalf("\t%s\tTest 0:\tShould reject %v as an argument.", failed, v)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould reject numbers that aren't finite as arguments.", success)
		}

		t.Logf("\tTest 1:\tWhen a program nests too deep.")
		{
			deep := strings.Repeat("(", 3_000_000) + strings.Repeat(")", 3_000_000)
			if _, err := lisp.Evaluate(deep, nil, 1_000); !errors.Is(err, lisp.ErrTooDeep) {
				t.Fatalf("\t%s\tTest 1:\tShould refuse to parse it: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould refuse to parse it.", success)

			n := lisp.MaxDepth - 1
			nested := strings.Repeat("(not ", n) + "1" + strings.Repeat(")", n)
			if _, err := lisp.Evaluate(nested, nil, lisp.Unlimited); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould accept nesting within the limit: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould accept nesting within the limit.", success)
		}

		t.Logf("\tTest 2:\tWhen a procedure recurses too deep.")
		{
			const down = `(define down (lambda (n) (if (eq n 0) 0 (down (- n 1)))))`

			ev := lisp.New(nil, lisp.Unlimited)
			if _, err := ev.Run(down); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to load the code: %s", failed, err)
			}

			if _, err := ev.Call("down", 100.0); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould recurse within the limit: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould recurse within the limit.", success)

			if _, err := ev.Call("down", 5_000.0); !errors.Is(err, lisp.ErrTooDeep) {
				t.Fatalf("\t%s\tTest 2:\tShould stop deep recursion: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould stop deep recursion.", success)
		}
	}
}
