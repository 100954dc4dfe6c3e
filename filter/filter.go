package filter

import (
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/autolabel/torrent"
)

// Filter is a compiled torrent selection expression
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile parses and type-checks a filter expression
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(environment(torrent.Info{})),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Position:   -1,
			Err:        err,
		}
	}

	return &Filter{
		expression: expression,
		program:    program,
	}, nil
}

// Match evaluates the filter against a torrent. Runtime errors count as no match.
func (f *Filter) Match(t torrent.Info) bool {
	result, err := expr.Run(f.program, environment(t))
	if err != nil {
		return false
	}
	ok, _ := result.(bool)
	return ok
}

// String returns the original expression
func (f *Filter) String() string {
	return f.expression
}

// environment builds the variables and helpers visible to an expression
func environment(t torrent.Info) map[string]any {
	return map[string]any{
		"Torrent":  t,
		"Name":     t.Name,
		"Label":    t.Label,
		"Tags":     t.Tags,
		"Size":     t.Size,
		"Progress": t.Progress,
		"State":    t.State,
		"Tracker":  t.Tracker,
		"SavePath": t.SavePath,
		"AddedOn":  t.AddedOn,

		"hasTag": func(tag string) bool {
			return slices.ContainsFunc(t.Tags, func(s string) bool {
				return strings.EqualFold(s, tag)
			})
		},
		"hasLabel": func() bool {
			return t.Label != ""
		},

		// Date helpers
		"daysSince": func(at time.Time) int {
			return int(time.Since(at).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"now": time.Now,

		// Case-insensitive string helpers. contains, startsWith and endsWith
		// are expr operators, so these carry an i prefix.
		"icontains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"istartsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"iendsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,

		// Size helpers
		"mb": func(n float64) int64 {
			return int64(n * 1024 * 1024)
		},
		"gb": func(n float64) int64 {
			return int64(n * 1024 * 1024 * 1024)
		},
	}
}
