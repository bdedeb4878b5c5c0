package scanners

import (
	"context"
	"regexp"

	"github.com/mergeguard/mergeguard/internal/types"
)

// StaticSource is the producer name static-analysis findings carry.
const StaticSource = "static-analysis"

// Static applies per-language insecure-pattern rules. It only runs for
// languages it has a rule set for.
type Static struct{}

func NewStatic() Static { return Static{} }

func (Static) Name() string        { return StaticSource }
func (Static) Languages() []string { return []string{"python", "javascript", "typescript"} }
func (Static) Deterministic() bool { return true }

var pythonRules = []rule{
	{
		kind: "sql-injection", re: regexp.MustCompile(`(?i)(execute|executemany)\s*\(\s*(f["']|["'].*%s|.*\+\s*\w)`),
		severity: types.SevCritical, confidence: types.ConfHigh,
		message: "SQL statement built from string interpolation",
		cwe:     "CWE-89", fix: "Use parameterized queries",
	},
	{
		kind: "command-injection", re: regexp.MustCompile(`os\.system\s*\(|subprocess\.\w+\(.*shell\s*=\s*True`),
		severity: types.SevCritical, confidence: types.ConfHigh,
		message: "Shell command built from program data",
		cwe:     "CWE-78", fix: "Use subprocess with an argument list and shell=False",
	},
	{
		kind: "eval-usage", re: regexp.MustCompile(`\b(eval|exec)\s*\(`),
		severity: types.SevHigh, confidence: types.ConfHigh,
		message: "Dynamic code execution via eval/exec",
		cwe:     "CWE-95", fix: "Replace dynamic evaluation with explicit dispatch",
	},
	{
		kind: "insecure-deserialization", re: regexp.MustCompile(`pickle\.loads?\s*\(|yaml\.load\s*\((?:[^)]*[^e][^)]*)?\)`),
		severity: types.SevHigh, confidence: types.ConfMedium,
		message: "Deserialization of untrusted data",
		cwe:     "CWE-502", fix: "Use yaml.safe_load or a schema-validated format",
	},
	{
		kind: "weak-crypto", re: regexp.MustCompile(`hashlib\.(md5|sha1)\s*\(`),
		severity: types.SevMedium, confidence: types.ConfHigh,
		message: "Weak hash algorithm for security-sensitive data",
		cwe:     "CWE-327", fix: "Use SHA-256 or stronger",
	},
	{
		kind: "insecure-random", re: regexp.MustCompile(`\brandom\.(random|randint|choice)\s*\(`),
		severity: types.SevLow, confidence: types.ConfMedium,
		message: "Non-cryptographic RNG in potentially sensitive context",
		cwe:     "CWE-338", fix: "Use the secrets module for tokens and keys",
	},
}

var javascriptRules = []rule{
	{
		kind: "eval-usage", re: regexp.MustCompile(`\beval\s*\(|new\s+Function\s*\(`),
		severity: types.SevHigh, confidence: types.ConfHigh,
		message: "Dynamic code execution via eval or Function constructor",
		cwe:     "CWE-95", fix: "Replace dynamic evaluation with explicit dispatch",
	},
	{
		kind: "xss", re: regexp.MustCompile(`\.innerHTML\s*=|document\.write\s*\(`),
		severity: types.SevHigh, confidence: types.ConfMedium,
		message: "DOM sink assignment that can execute injected markup",
		cwe:     "CWE-79", fix: "Use textContent or a sanitizer",
	},
	{
		kind: "command-injection", re: regexp.MustCompile(`child_process\.(exec|execSync)\s*\(`),
		severity: types.SevCritical, confidence: types.ConfHigh,
		message: "Shell command built from program data",
		cwe:     "CWE-78", fix: "Use execFile with an argument array",
	},
	{
		kind: "sql-injection", re: regexp.MustCompile("(?i)query\\s*\\(\\s*(`.*\\$\\{|[\"'].*[\"']\\s*\\+)"),
		severity: types.SevCritical, confidence: types.ConfHigh,
		message: "SQL statement built from string interpolation",
		cwe:     "CWE-89", fix: "Use parameterized queries",
	},
	{
		kind: "weak-crypto", re: regexp.MustCompile(`createHash\s*\(\s*["'](md5|sha1)["']`),
		severity: types.SevMedium, confidence: types.ConfHigh,
		message: "Weak hash algorithm for security-sensitive data",
		cwe:     "CWE-327", fix: "Use SHA-256 or stronger",
	},
}

func (Static) Scan(_ context.Context, source, _, language string) ([]types.Finding, error) {
	switch language {
	case "python":
		return scanLines(source, StaticSource, pythonRules), nil
	case "javascript", "typescript":
		return scanLines(source, StaticSource, javascriptRules), nil
	}
	return nil, nil
}
