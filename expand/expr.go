package expand

import (
	"log"
	"strings"

	opts "github.com/goliatone/go-options"
	"github.com/knadh/koanf/v2"
)

const (
	defaultExprStart = "{{"
	defaultExprEnd   = "}}"
)

// ExprErrorHandler decides what happens when an expression fails to
// evaluate. Return true to mark the error as handled.
type ExprErrorHandler func(key, expr string, err error, doc *koanf.Koanf) bool

type exprPass struct {
	delims    delimiters
	evaluator opts.Evaluator
	onError   ExprErrorHandler
}

// NewExprPass returns a pass that evaluates string values consisting
// entirely of an expression wrapped in the given delimiters (default
// {{ }}). The expression sees the whole document as its environment,
// so "{{ replicas * 2 }}" works against a sibling replicas key.
func NewExprPass(start, end string) Pass {
	return NewExprPassWith(start, end, nil, nil)
}

// NewExprPassWith is NewExprPass with a custom evaluator and error
// handler.
func NewExprPassWith(start, end string, eval opts.Evaluator, onErr ExprErrorHandler) Pass {
	if start == "" {
		start = defaultExprStart
	}
	if end == "" {
		end = defaultExprEnd
	}
	if eval == nil {
		eval = opts.NewExprEvaluator()
	}
	if onErr == nil {
		onErr = OnExprErrorKeep()
	}
	return &exprPass{
		delims:    delimiters{start: start, end: end},
		evaluator: eval,
		onError:   onErr,
	}
}

func (p exprPass) Expand(doc *koanf.Koanf) *koanf.Koanf {
	if doc == nil {
		return doc
	}
	for key, val := range doc.All() {
		str, ok := val.(string)
		if !ok {
			continue
		}
		expr, ok := p.wholeExpr(str)
		if !ok {
			continue
		}

		expr = strings.TrimSpace(expr)
		result, err := p.evaluator.Evaluate(opts.RuleContext{Snapshot: doc.Raw()}, expr)
		if err != nil {
			p.onError(key, expr, err, doc)
			continue
		}
		doc.Set(key, result)
	}
	return doc
}

func (p exprPass) wholeExpr(input string) (string, bool) {
	if !strings.HasPrefix(input, p.delims.start) || !strings.HasSuffix(input, p.delims.end) {
		return "", false
	}
	start := len(p.delims.start)
	end := len(input) - len(p.delims.end)
	if end < start {
		return "", false
	}
	return input[start:end], true
}

// OnExprErrorKeep leaves the original value in place.
func OnExprErrorKeep() ExprErrorHandler {
	return func(string, string, error, *koanf.Koanf) bool { return true }
}

// OnExprErrorRemove deletes the offending key.
func OnExprErrorRemove() ExprErrorHandler {
	return func(key, _ string, _ error, doc *koanf.Koanf) bool {
		if doc != nil {
			doc.Delete(key)
		}
		return true
	}
}

// OnExprErrorPanic logs the failure and panics. Useful in tooling
// where a broken expression should abort immediately.
func OnExprErrorPanic(logger *log.Logger) ExprErrorHandler {
	return func(key, expr string, err error, _ *koanf.Koanf) bool {
		if logger == nil {
			logger = log.Default()
		}
		logger.Printf("expression failed for %s: %s (%v)", key, expr, err)
		panic(err)
	}
}
