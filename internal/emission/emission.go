// Package emission handles the CO2 figure written into the tax workbook:
// either the value reported by the emissions endpoint, or a proxy derived
// from the vehicle's fuel efficiency when no reported value exists.
package emission

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultDeriveExpression is the shipped CO2 proxy calculation. The formula
// has no documented derivation; it is preserved exactly as the template's
// operators have always used it.
const DefaultDeriveExpression = "efficiency * 0.1"

// ParseEfficiency parses a fuel-efficiency figure that may use a comma
// decimal separator.
func ParseEfficiency(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("parse fuel efficiency %q: %w", s, err)
	}
	return v, nil
}

// FormatEfficiency renders a fuel-efficiency figure with a comma decimal
// separator, the form the spreadsheet template expects.
func FormatEfficiency(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', -1, 64), ".", ",")
}

// Deriver computes the CO2 proxy from a fuel-efficiency figure by evaluating
// a configured expression with the efficiency bound as `efficiency`.
type Deriver struct {
	expression string
	cache      sync.Map // expression string → compiled *vm.Program
}

// NewDeriver creates a Deriver for the given expression. An empty expression
// selects DefaultDeriveExpression.
func NewDeriver(expression string) *Deriver {
	if expression == "" {
		expression = DefaultDeriveExpression
	}
	return &Deriver{expression: expression}
}

// Derive evaluates the configured expression for the given efficiency.
func (d *Deriver) Derive(efficiency float64) (float64, error) {
	env := map[string]any{"efficiency": efficiency}
	program, err := d.compile(env)
	if err != nil {
		return 0, fmt.Errorf("compile expression %q: %w", d.expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return 0, fmt.Errorf("evaluate expression %q: %w", d.expression, err)
	}
	switch v := result.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expression %q evaluated to %T, expected number", d.expression, result)
	}
}

func (d *Deriver) compile(env map[string]any) (*vm.Program, error) {
	if cached, ok := d.cache.Load(d.expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(d.expression, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	d.cache.Store(d.expression, program)
	return program, nil
}
