package scanners

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/mergeguard/mergeguard/internal/types"
)

// rule is a line-oriented detection pattern shared by the pattern-based
// scanners. Each match becomes one normalized finding.
type rule struct {
	kind       string
	re         *regexp.Regexp
	severity   types.Severity
	confidence types.Confidence
	message    string
	cwe        string
	fix        string
}

// scanLines runs every rule against each line of source and emits a
// finding per match. Lines carrying an inline "mergeguard:ignore"
// marker are skipped, as is the line following
// "mergeguard:ignore-next-line".
func scanLines(source, producer string, rules []rule) []types.Finding {
	var out []types.Finding
	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	skipNext := false
	for sc.Scan() {
		line++
		t := sc.Text()
		if strings.Contains(t, "mergeguard:ignore-next-line") {
			skipNext = true
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}
		if strings.Contains(t, "mergeguard:ignore") {
			continue
		}
		for _, r := range rules {
			if !r.re.MatchString(t) {
				continue
			}
			f := types.Finding{
				Kind:       r.kind,
				Severity:   r.severity,
				Line:       line,
				Message:    r.message,
				Source:     producer,
				Confidence: r.confidence,
			}
			if r.cwe != "" || r.fix != "" {
				f.Metadata = map[string]string{}
				if r.cwe != "" {
					f.Metadata["cwe"] = r.cwe
				}
				if r.fix != "" {
					f.Metadata["fix"] = r.fix
				}
			}
			out = append(out, f)
		}
	}
	return out
}

// normalizeLine strips literals and collapses whitespace so near-
// identical statements hash equally in the duplication scanner.
func normalizeLine(s string) string {
	s = strings.TrimSpace(s)
	s = reStringLit.ReplaceAllString(s, `""`)
	s = reNumberLit.ReplaceAllString(s, "0")
	return strings.Join(strings.Fields(s), " ")
}

var (
	reStringLit = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	reNumberLit = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
)
