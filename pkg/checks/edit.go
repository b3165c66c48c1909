package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/preflightd/preflight/pkg/check"
)

// ExactMatch verifies the text being replaced actually occurs in the
// file content. Failing this means the edit would silently no-op or
// target the wrong region, so it is critical.
func ExactMatch() check.Check {
	return check.Check{
		Name:       "exact_match",
		Category:   CategoryStructural,
		Critical:   true,
		Confidence: 100,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			content := p.String(ParamFileContent)
			old := p.String(ParamOldText)
			if old == "" {
				return check.Finding{}, fmt.Errorf("missing %q parameter", ParamOldText)
			}
			n := strings.Count(content, old)
			return check.Finding{Passed: n > 0, Detail: n}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			n, ok := f.Detail.(int)
			if !ok {
				return "", fmt.Errorf("unexpected detail type")
			}
			if n == 0 {
				return "target text not found in file", nil
			}
			return fmt.Sprintf("target text found (%d occurrence(s))", n), nil
		},
	}
}

// UniqueMatch verifies the target text occurs exactly once, so the
// replacement site is unambiguous.
func UniqueMatch() check.Check {
	return check.Check{
		Name:       "unique_match",
		Category:   CategoryStructural,
		Critical:   true,
		Confidence: 95,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			n := strings.Count(p.String(ParamFileContent), p.String(ParamOldText))
			return check.Finding{Passed: n == 1, Detail: n}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			return fmt.Sprintf("%v occurrence(s) of target text", f.Detail), nil
		},
	}
}

// SizeDelta flags edits that grow or shrink the file by more than half
// its current size. Large swings usually mean a mangled replacement;
// advisory only, so non-critical.
func SizeDelta() check.Check {
	return check.Check{
		Name:       "size_delta",
		Category:   CategoryStructural,
		Critical:   false,
		Confidence: 98,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			content := p.String(ParamFileContent)
			delta := len(p.String(ParamNewText)) - len(p.String(ParamOldText))
			if delta < 0 {
				delta = -delta
			}
			limit := len(content) / 2
			if limit < 64 {
				limit = 64 // small files get an absolute floor
			}
			return check.Finding{Passed: delta <= limit, Detail: delta}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			return fmt.Sprintf("edit changes file size by %v byte(s)", f.Detail), nil
		},
	}
}

var bracePairs = [][2]byte{{'{', '}'}, {'(', ')'}, {'[', ']'}}

func braceBalance(s string) [3]int {
	var bal [3]int
	for i := 0; i < len(s); i++ {
		for j, pair := range bracePairs {
			switch s[i] {
			case pair[0]:
				bal[j]++
			case pair[1]:
				bal[j]--
			}
		}
	}
	return bal
}

// BraceBalance verifies the replacement preserves the net balance of
// braces, parentheses and brackets, so the edit cannot break the
// file's nesting structure.
func BraceBalance() check.Check {
	return check.Check{
		Name:       "brace_balance",
		Category:   CategoryStructural,
		Critical:   true,
		Confidence: 100,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			oldBal := braceBalance(p.String(ParamOldText))
			newBal := braceBalance(p.String(ParamNewText))
			return check.Finding{Passed: oldBal == newBal, Detail: [2][3]int{oldBal, newBal}}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			bal, ok := f.Detail.([2][3]int)
			if !ok {
				return "", fmt.Errorf("unexpected detail type")
			}
			if bal[0] == bal[1] {
				return "brace balance preserved", nil
			}
			return fmt.Sprintf("brace balance changes from %v to %v ({} () [])", bal[0], bal[1]), nil
		},
	}
}

// SecretIntroduction verifies the replacement introduces no secret
// material that the replaced text did not already contain.
func SecretIntroduction() check.Check {
	return check.Check{
		Name:       "secret_introduction",
		Category:   CategorySecrets,
		Critical:   true,
		Confidence: 90,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			oldHits := findSecrets(p.String(ParamOldText))
			existing := make(map[string]bool, len(oldHits))
			for _, h := range oldHits {
				existing[h] = true
			}
			var introduced []string
			for _, h := range findSecrets(p.String(ParamNewText)) {
				if !existing[h] {
					introduced = append(introduced, h)
				}
			}
			return check.Finding{Passed: len(introduced) == 0, Detail: len(introduced)}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if n, _ := f.Detail.(int); n > 0 {
				return fmt.Sprintf("edit introduces %d secret-like fragment(s)", n), nil
			}
			return "no secret material introduced", nil
		},
	}
}
