// Package audit appends tamper-evident records of analysis runs and
// gate decisions to a local JSONL log. Each record carries an ID
// derived from its canonical JSON form, so any later edit to a stored
// record is detectable by re-hashing.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/gowebpki/jcs"

	"github.com/mergeguard/mergeguard/internal/policy"
	"github.com/mergeguard/mergeguard/internal/types"
)

// Record is one analysis-plus-decision event.
type Record struct {
	ID             string         `json:"id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Filename       string         `json:"filename"`
	Language       string         `json:"language"`
	Generated      bool           `json:"generated"`
	TotalFindings  int            `json:"total_findings"`
	SeverityCounts map[string]int `json:"severity_counts"`
	Status         string         `json:"status"`
	ShouldBlock    bool           `json:"should_block"`
	Rationale      string         `json:"rationale"`
	Duration       string         `json:"duration"`
	FailedScanners []string       `json:"failed_scanners,omitempty"`
}

// Log appends records to a JSONL file under the scanned root. Inside a
// git repository the log lives in .git so it never gets committed.
type Log struct {
	path string
}

// NewLog picks the log location for root.
func NewLog(root string) *Log {
	path := filepath.Join(root, ".mergeguard_audit.jsonl")
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		path = filepath.Join(gitDir, "mergeguard_audit.jsonl")
	}
	return &Log{path: path}
}

// NewRecord assembles a record from a run's aggregate and decision.
func NewRecord(filename, language string, generated bool, findings []types.Finding, d policy.Decision, duration time.Duration, failed []string) Record {
	counts := map[string]int{}
	for _, f := range findings {
		counts[string(f.Severity)]++
	}
	return Record{
		Timestamp:      time.Now().UTC(),
		Filename:       filename,
		Language:       language,
		Generated:      generated,
		TotalFindings:  len(findings),
		SeverityCounts: counts,
		Status:         string(d.Status),
		ShouldBlock:    d.ShouldBlock,
		Rationale:      d.Rationale,
		Duration:       duration.String(),
		FailedScanners: failed,
	}
}

// Append writes the record with its canonical hash ID. Permissions are
// owner-only since rationale strings can reference finding content.
func (l *Log) Append(rec Record) error {
	id, err := recordID(rec)
	if err != nil {
		return err
	}
	rec.ID = id

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// History returns all records, newest first. Corrupt lines are skipped
// rather than failing the read.
func (l *Log) History() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Verify re-hashes rec and reports whether its stored ID still
// matches its content.
func Verify(rec Record) (bool, error) {
	want := rec.ID
	rec.ID = ""
	got, err := recordID(rec)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

// recordID hashes the JCS canonical form of the record, so field order
// and whitespace never affect the ID.
func recordID(rec Record) (string, error) {
	rec.ID = ""
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize audit record: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(canonical)), nil
}
