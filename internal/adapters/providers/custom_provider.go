package providers

import (
	"context"
	"math"
	"time"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/shopspring/decimal"
)

const (
	// expressionMaxNodes caps the size of an expression's syntax tree at compile time.
	expressionMaxNodes = 500
	// expressionMemoryBudget caps what one evaluation may allocate (ranges, arrays, maps).
	expressionMemoryBudget = 100_000
)

// expressionEnv is everything a custom expression can see.
func expressionEnv(source, target string, date time.Time, base map[string]float64) map[string]any {
	return map[string]any{
		"source":  source,
		"target":  target,
		"date":    domain.FormatDate(date),
		"year":    date.Year(),
		"month":   int(date.Month()),
		"day":     date.Day(),
		"weekday": int(date.Weekday()),
		"base":    base,
	}
}

// ExpressionAdapter evaluates an administrator-supplied expr program.
// The program is compiled once per adapter instance.
type ExpressionAdapter struct {
	program *vm.Program
	base    map[string]float64
	timeout time.Duration
}

// NewExpressionAdapter compiles expression against the sandbox environment.
func NewExpressionAdapter(expression string, baseRates map[string]decimal.Decimal, timeout time.Duration) (*ExpressionAdapter, error) {
	if expression == "" {
		return nil, unavailable("custom", "empty expression")
	}
	program, err := expr.Compile(expression,
		expr.Env(expressionEnv("", "", time.Time{}, map[string]float64{})),
		expr.MaxNodes(expressionMaxNodes),
	)
	if err != nil {
		return nil, unavailable("custom", "compiling expression: %v", err)
	}

	base := make(map[string]float64, len(baseRates))
	for code, rate := range baseRates {
		base[code] = rate.InexactFloat64()
	}
	return &ExpressionAdapter{program: program, base: base, timeout: timeout}, nil
}

type evalResult struct {
	value any
	err   error
}

func (a *ExpressionAdapter) Resolve(ctx context.Context, sourceCurrency, targetCurrency string, date time.Time) (decimal.Decimal, error) {
	sourceCurrency, targetCurrency = domain.NormalizeCode(sourceCurrency), domain.NormalizeCode(targetCurrency)
	if sourceCurrency == targetCurrency {
		return decimal.NewFromInt(1), nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	env := expressionEnv(sourceCurrency, targetCurrency, domain.NormalizeDate(date), a.base)

	done := make(chan evalResult, 1)
	go func() {
		machine := vm.VM{MemoryBudget: expressionMemoryBudget}
		out, err := machine.Run(a.program, env)
		done <- evalResult{value: out, err: err}
	}()

	var res evalResult
	select {
	case <-ctx.Done():
		return decimal.Zero, unavailable("custom", "evaluation aborted: %v", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return decimal.Zero, unavailable("custom", "evaluating expression: %v", res.err)
	}

	var f float64
	switch v := res.value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return decimal.Zero, unavailable("custom", "expression returned %T, want a number", res.value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, unavailable("custom", "expression returned %v", f)
	}
	return checkRate("custom", decimal.NewFromFloat(f))
}
