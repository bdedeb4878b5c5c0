package scanners

import (
	"context"
	"fmt"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/mergeguard/mergeguard/internal/types"
)

// DuplicationSource is the producer name duplication findings carry.
const DuplicationSource = "duplication-detector"

// blockWindow is the number of consecutive normalized statements that
// must repeat before a block counts as duplicated.
const blockWindow = 4

// Duplication finds copy-pasted blocks within a file by hashing
// windows of normalized statements.
type Duplication struct{}

func NewDuplication() Duplication { return Duplication{} }

func (Duplication) Name() string        { return DuplicationSource }
func (Duplication) Languages() []string { return nil }
func (Duplication) Deterministic() bool { return true }

func (Duplication) Scan(_ context.Context, source, _, _ string) ([]types.Finding, error) {
	type stmt struct {
		line int
		hash uint64
	}
	var stmts []stmt
	for i, raw := range strings.Split(source, "\n") {
		t := strings.TrimSpace(raw)
		if t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, "//") {
			continue
		}
		stmts = append(stmts, stmt{line: i + 1, hash: xxhash.Sum64String(normalizeLine(t))})
	}
	if len(stmts) < blockWindow*2 {
		return nil, nil
	}

	// Hash each window of blockWindow statements; a window hash seen at
	// an earlier, non-overlapping position is a duplicated block.
	firstAt := map[uint64]int{} // window hash -> index of first occurrence
	var out []types.Finding
	reported := map[int]bool{} // suppress overlapping reports at the same origin
	for i := 0; i+blockWindow <= len(stmts); i++ {
		var h xxhash.Digest
		for j := i; j < i+blockWindow; j++ {
			var b [8]byte
			putUint64(b[:], stmts[j].hash)
			_, _ = h.Write(b[:])
		}
		sum := h.Sum64()
		if first, ok := firstAt[sum]; ok {
			if i-first >= blockWindow && !reported[first] {
				reported[first] = true
				msg := fmt.Sprintf("Code block duplicated at line %d (%d matching statements)", stmts[i].line, blockWindow)
				out = append(out, types.Finding{
					Kind:       "duplicate-code-block",
					Severity:   types.SevMedium,
					Line:       stmts[first].line,
					Message:    msg,
					Source:     DuplicationSource,
					Confidence: types.ConfHigh,
					Metadata: map[string]string{
						"cwe":            "CWE-1041",
						"duplicate_line": fmt.Sprintf("%d", stmts[i].line),
						"fix":            "Extract the repeated logic into a shared function",
					},
				})
			}
			continue
		}
		firstAt[sum] = i
	}
	return out, nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
