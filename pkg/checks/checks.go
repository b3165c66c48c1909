// Package checks provides the built-in rule bodies for the reference
// operation types. Each constructor returns a plain check.Check; the
// gate core never depends on this package, so deployments can swap any
// rule body without touching the engine.
package checks

import (
	"regexp"
)

// Well-known parameter bundle keys.
const (
	ParamFileContent   = "file_content"
	ParamOldText       = "old_text"
	ParamNewText       = "new_text"
	ParamCommand       = "command"
	ParamWorkdir       = "workdir"
	ParamWorkspaceRoot = "workspace_root"
	ParamPath          = "path"
	ParamContent       = "content"
	ParamToolName      = "tool_name"
	ParamToolParams    = "tool_params"
	ParamToolVersion   = "tool_version"
)

// Check categories used by the built-ins.
const (
	CategoryStructural = "structural"
	CategorySafety     = "safety"
	CategorySecrets    = "secrets"
	CategoryGovernance = "governance"
)

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH |PGP )?PRIVATE KEY`),
	regexp.MustCompile(`(?i)xox[baprs]-[0-9A-Za-z-]{10,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password)\s*[:=]\s*["'][^"']{8,}["']`),
	regexp.MustCompile(`ghp_[0-9A-Za-z]{36}`),
}

// findSecrets returns the matched fragments of any secret patterns in s.
func findSecrets(s string) []string {
	var hits []string
	for _, re := range secretPatterns {
		if m := re.FindString(s); m != "" {
			hits = append(hits, m)
		}
	}
	return hits
}
