package checks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/preflightd/preflight/pkg/check"
)

// DefaultProtectedPatterns are path fragments the gate refuses to
// touch by default.
var DefaultProtectedPatterns = []string{
	".git/",
	".env",
	"id_rsa",
	"id_ed25519",
	".ssh/",
	"credentials",
	".pem",
}

// PathInsideWorkspace verifies the target path resolves inside the
// workspace root. Escaping the workspace is the canonical agent
// failure mode, so this is critical.
func PathInsideWorkspace() check.Check {
	return check.Check{
		Name:       "path_inside_workspace",
		Category:   CategorySafety,
		Critical:   true,
		Confidence: 100,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			root := p.String(ParamWorkspaceRoot)
			path := p.String(ParamPath)
			if root == "" || path == "" {
				return check.Finding{}, fmt.Errorf("missing %q or %q parameter", ParamWorkspaceRoot, ParamPath)
			}
			return check.Finding{Passed: pathWithin(root, path)}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("path %q escapes workspace %q",
					p.String(ParamPath), p.String(ParamWorkspaceRoot)), nil
			}
			return "path inside workspace", nil
		},
	}
}

// ProtectedPath denies operations on sensitive paths. With no
// arguments the default pattern list applies.
func ProtectedPath(patterns ...string) check.Check {
	if len(patterns) == 0 {
		patterns = DefaultProtectedPatterns
	}
	return check.Check{
		Name:       "protected_path",
		Category:   CategorySafety,
		Critical:   true,
		Confidence: 95,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			path := filepath.ToSlash(filepath.Clean(p.String(ParamPath)))
			for _, pat := range patterns {
				if strings.Contains(path, pat) || strings.HasSuffix(path, strings.TrimSuffix(pat, "/")) {
					return check.Finding{Passed: false, Detail: pat}, nil
				}
			}
			return check.Finding{Passed: true}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("path matches protected pattern %q", f.Detail), nil
			}
			return "path not protected", nil
		},
	}
}

// ContentSecretScan verifies content written to disk carries no
// secret-like material.
func ContentSecretScan() check.Check {
	return check.Check{
		Name:       "content_secret_scan",
		Category:   CategorySecrets,
		Critical:   true,
		Confidence: 90,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			hits := findSecrets(p.String(ParamContent))
			return check.Finding{Passed: len(hits) == 0, Detail: len(hits)}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if n, _ := f.Detail.(int); n > 0 {
				return fmt.Sprintf("content contains %d secret-like fragment(s)", n), nil
			}
			return "no secret material in content", nil
		},
	}
}
