package checks

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/preflightd/preflight/pkg/check"
)

var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+(/|~|\$HOME)(\s|$)`),
	regexp.MustCompile(`\bmkfs(\.[a-z0-9]+)?\b`),
	regexp.MustCompile(`\bdd\b.*\bof=/dev/`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\};:`),
	regexp.MustCompile(`\b(shutdown|reboot|halt|poweroff)\b`),
	regexp.MustCompile(`\bchmod\s+(-[a-zA-Z]+\s+)*777\s+/(\s|$)`),
	regexp.MustCompile(`\bgit\s+push\s+.*--force\b`),
	regexp.MustCompile(`>\s*/dev/sd[a-z]`),
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(curl|wget)\b[^|;]*\|\s*(sudo\s+)?(sh|bash|zsh)\b`),
	regexp.MustCompile("`[^`]+`"),
	regexp.MustCompile(`\beval\s`),
}

// DestructiveCommand denies commands matching known-destructive shapes
// (recursive root deletes, raw device writes, fork bombs, forced
// pushes). Extra patterns extend the built-in list.
func DestructiveCommand(extra ...string) check.Check {
	patterns := destructivePatterns
	for _, e := range extra {
		patterns = append(patterns, regexp.MustCompile(e))
	}
	return check.Check{
		Name:       "destructive_command",
		Category:   CategorySafety,
		Critical:   true,
		Confidence: 100,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			cmd := p.String(ParamCommand)
			if cmd == "" {
				return check.Finding{}, fmt.Errorf("missing %q parameter", ParamCommand)
			}
			for _, re := range patterns {
				if m := re.FindString(cmd); m != "" {
					return check.Finding{Passed: false, Detail: m}, nil
				}
			}
			return check.Finding{Passed: true}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("destructive pattern matched: %q", f.Detail), nil
			}
			return "no destructive pattern matched", nil
		},
	}
}

// pathWithin reports whether p stays inside root after cleaning.
func pathWithin(root, p string) bool {
	if root == "" || p == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// WorkdirInsideWorkspace verifies the command's working directory
// resolves inside the workspace root.
func WorkdirInsideWorkspace() check.Check {
	return check.Check{
		Name:       "workdir_inside_workspace",
		Category:   CategorySafety,
		Critical:   true,
		Confidence: 95,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			root := p.String(ParamWorkspaceRoot)
			if root == "" {
				return check.Finding{}, fmt.Errorf("missing %q parameter", ParamWorkspaceRoot)
			}
			return check.Finding{Passed: pathWithin(root, p.String(ParamWorkdir))}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("workdir %q escapes workspace %q",
					p.String(ParamWorkdir), p.String(ParamWorkspaceRoot)), nil
			}
			return "workdir inside workspace", nil
		},
	}
}

// ShellInjection flags piped download-execute chains, command
// substitution and eval. Advisory: plenty of legitimate commands use
// these shapes, so it only consumes the failure budget.
func ShellInjection() check.Check {
	return check.Check{
		Name:       "shell_injection",
		Category:   CategorySafety,
		Critical:   false,
		Confidence: 80,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			cmd := p.String(ParamCommand)
			for _, re := range injectionPatterns {
				if m := re.FindString(cmd); m != "" {
					return check.Finding{Passed: false, Detail: m}, nil
				}
			}
			return check.Finding{Passed: true}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("suspicious shell construct: %q", f.Detail), nil
			}
			return "no suspicious shell construct", nil
		},
	}
}
