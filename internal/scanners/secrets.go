package scanners

import (
	"bufio"
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/mergeguard/mergeguard/internal/types"
)

// SecretsSource is the producer name secrets findings carry.
const SecretsSource = "secrets-detector"

// Secrets detects hardcoded credentials via known-format patterns plus
// an entropy heuristic for generic tokens near credential keywords.
type Secrets struct{}

func NewSecrets() Secrets { return Secrets{} }

func (Secrets) Name() string        { return SecretsSource }
func (Secrets) Languages() []string { return nil }
func (Secrets) Deterministic() bool { return true }

var secretRules = []rule{
	{
		kind: "hardcoded-api-key", re: regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["'][a-z0-9_\-]{20,}["']`),
		severity: types.SevCritical, confidence: types.ConfHigh,
		message: "Hardcoded API key assigned to a variable",
		cwe:     "CWE-798", fix: "Load the key from environment or a secrets manager",
	},
	{
		kind: "openai-key", re: regexp.MustCompile(`\bsk-[A-Za-z0-9]{48}\b`),
		severity: types.SevCritical, confidence: types.ConfVeryHigh,
		message: "OpenAI API key committed to source",
		cwe:     "CWE-798", fix: "Revoke the key and load it from configuration",
	},
	{
		kind: "github-token", re: regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b`),
		severity: types.SevCritical, confidence: types.ConfVeryHigh,
		message: "GitHub personal access token committed to source",
		cwe:     "CWE-798", fix: "Revoke the token and use a credential helper",
	},
	{
		kind: "aws-key", re: regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		severity: types.SevCritical, confidence: types.ConfVeryHigh,
		message: "AWS access key ID committed to source",
		cwe:     "CWE-798", fix: "Rotate the key and use an instance profile or env vars",
	},
	{
		kind: "slack-token", re: regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}-[a-zA-Z0-9]{24,}`),
		severity: types.SevCritical, confidence: types.ConfVeryHigh,
		message: "Slack token committed to source",
		cwe:     "CWE-798", fix: "Revoke the token in the Slack admin console",
	},
	{
		kind: "private-key", re: regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`),
		severity: types.SevCritical, confidence: types.ConfVeryHigh,
		message: "Private key material committed to source",
		cwe:     "CWE-798", fix: "Remove the key and rotate the credential",
	},
	{
		kind: "hardcoded-password", re: regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["'][^"']{4,}["']`),
		severity: types.SevCritical, confidence: types.ConfHigh,
		message: "Hardcoded password assigned to a variable",
		cwe:     "CWE-798", fix: "Load the password from environment or a secrets manager",
	},
	{
		kind: "hardcoded-secret", re: regexp.MustCompile(`(?i)(secret[_-]?key|auth[_-]?token)\s*[:=]\s*["'][a-z0-9_\-]{16,}["']`),
		severity: types.SevHigh, confidence: types.ConfHigh,
		message: "Hardcoded secret assigned to a variable",
		cwe:     "CWE-798", fix: "Load the secret from environment or a secrets manager",
	},
	{
		kind: "database-url", re: regexp.MustCompile(`(?i)(mysql|postgres|postgresql|mongodb)://[^:\s]+:[^@\s]+@`),
		severity: types.SevHigh, confidence: types.ConfHigh,
		message: "Database URL embeds credentials",
		cwe:     "CWE-798", fix: "Reference credentials via environment variables",
	},
	{
		kind: "jwt-token", re: regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
		severity: types.SevMedium, confidence: types.ConfMedium,
		message: "JWT committed to source",
		cwe:     "CWE-798", fix: "Remove the token; JWTs may carry live session grants",
	},
}

func (Secrets) Scan(_ context.Context, source, _, _ string) ([]types.Finding, error) {
	out := scanLines(source, SecretsSource, secretRules)
	out = append(out, entropySecrets(source)...)
	return out, nil
}

var (
	reTokenish       = regexp.MustCompile(`[A-Za-z0-9+/=_-]{20,}`)
	reSecretKeywords = regexp.MustCompile(`(?i)(secret|token|password|api[_-]?key|authorization|bearer)`)
)

// entropySecrets flags long high-entropy tokens on lines that mention a
// credential keyword. Threshold 4.0 bits/char keeps prose and
// identifiers out.
func entropySecrets(source string) []types.Finding {
	var out []types.Finding
	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		t := sc.Text()
		if strings.Contains(t, "mergeguard:ignore") {
			continue
		}
		if !reSecretKeywords.MatchString(t) {
			continue
		}
		for _, m := range reTokenish.FindAllString(t, -1) {
			if len(m) > 200 || shannonEntropy(m) < 4.0 {
				continue
			}
			out = append(out, types.Finding{
				Kind:       "high-entropy-string",
				Severity:   types.SevMedium,
				Line:       line,
				Message:    "High-entropy string near a credential keyword",
				Source:     SecretsSource,
				Confidence: types.ConfMedium,
				Metadata:   map[string]string{"cwe": "CWE-798"},
			})
		}
	}
	return out
}

func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	count := map[rune]int{}
	for _, r := range s {
		count[r]++
	}
	h := 0.0
	n := float64(len(s))
	for _, c := range count {
		p := float64(c) / n
		h += -p * math.Log2(p)
	}
	return h
}
