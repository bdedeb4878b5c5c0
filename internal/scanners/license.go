package scanners

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"github.com/mergeguard/mergeguard/internal/types"
)

// LicenseSource is the producer name license findings carry.
const LicenseSource = "license-scanner"

// License detects license headers pasted into source files and grades
// them by IP risk. Permissive licenses are reported as info so the
// provenance is visible without tripping any gate.
type License struct{}

func NewLicense() License { return License{} }

func (License) Name() string        { return LicenseSource }
func (License) Languages() []string { return nil }
func (License) Deterministic() bool { return true }

type licensePattern struct {
	name     string
	re       *regexp.Regexp
	severity types.Severity
	copyleft bool
}

var licensePatterns = []licensePattern{
	{"AGPL-3.0", regexp.MustCompile(`GNU\s+AFFERO\s+GENERAL\s+PUBLIC\s+LICENSE`), types.SevCritical, true},
	{"SSPL", regexp.MustCompile(`Server\s+Side\s+Public\s+License`), types.SevCritical, true},
	{"Commons-Clause", regexp.MustCompile(`Commons\s+Clause`), types.SevCritical, false},
	{"GPL-3.0", regexp.MustCompile(`GNU\s+GENERAL\s+PUBLIC\s+LICENSE\s+Version\s+3`), types.SevHigh, true},
	{"GPL-2.0", regexp.MustCompile(`GNU\s+GENERAL\s+PUBLIC\s+LICENSE\s+Version\s+2`), types.SevHigh, true},
	{"MIT", regexp.MustCompile(`MIT\s+License|Permission\s+is\s+hereby\s+granted`), types.SevInfo, false},
	{"Apache-2.0", regexp.MustCompile(`Apache\s+License,?\s+Version\s+2\.0`), types.SevInfo, false},
	{"BSD-3-Clause", regexp.MustCompile(`BSD\s+3-Clause|Redistribution\s+and\s+use\s+in\s+source`), types.SevInfo, false},
}

func (License) Scan(_ context.Context, source, _, _ string) ([]types.Finding, error) {
	var out []types.Finding
	seen := map[string]bool{}
	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		t := sc.Text()
		for _, lp := range licensePatterns {
			if seen[lp.name] || !lp.re.MatchString(t) {
				continue
			}
			seen[lp.name] = true
			kind := "license-header"
			msg := lp.name + " license text detected"
			if lp.severity.Rank() >= types.SevHigh.Rank() {
				kind = "restricted-license"
				msg = lp.name + " license text detected; incompatible with proprietary distribution"
			}
			out = append(out, types.Finding{
				Kind:       kind,
				Severity:   lp.severity,
				Line:       line,
				Message:    msg,
				Source:     LicenseSource,
				Confidence: types.ConfHigh,
				Metadata: map[string]string{
					"license":  lp.name,
					"copyleft": boolString(lp.copyleft),
				},
			})
		}
	}
	return out, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
