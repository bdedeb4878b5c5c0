// Package rulepack loads YAML compliance rule packs and evaluates them
// as a pipeline scanner. Packs are regex rule collections tagged with
// compliance references (PCI-DSS, HIPAA, NIST) so organizations can
// layer industry policy on top of the built-in scanners.
package rulepack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mergeguard/mergeguard/internal/types"
)

// Source is the producer name rule-pack findings carry, suffixed with
// the pack name (e.g. "rule-packs:banking-pci-dss").
const Source = "rule-packs"

// Rule is one entry in a pack file.
type Rule struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Severity    string   `yaml:"severity"`
	Patterns    []string `yaml:"patterns"`
	Languages   []string `yaml:"languages,omitempty"`
	CWE         string   `yaml:"cwe,omitempty"`
	Fix         string   `yaml:"fix,omitempty"`
	PCIDSS      []string `yaml:"pci_dss,omitempty"`
	HIPAA       []string `yaml:"hipaa,omitempty"`
	NIST        []string `yaml:"nist,omitempty"`
}

// Pack is the on-disk shape of a rule pack YAML file.
type Pack struct {
	Name  string          `yaml:"name"`
	Rules map[string]Rule `yaml:"rules"`
}

type compiledRule struct {
	id       string
	rule     Rule
	patterns []*regexp.Regexp
}

type compiledPack struct {
	name  string
	rules []compiledRule
}

// Engine evaluates loaded rule packs against source text. Pack reloads
// (administrative) are synchronized against scans (hot path).
type Engine struct {
	dir     string
	log     *zap.SugaredLogger
	mu      sync.RWMutex
	packs   map[string]compiledPack
	enabled []string // nil = all loaded packs
}

// NewEngine loads every *.yaml pack under dir. A missing directory is
// not an error; the engine just evaluates zero packs.
func NewEngine(dir string, log *zap.SugaredLogger) (*Engine, error) {
	e := &Engine{dir: dir, log: log, packs: map[string]compiledPack{}}
	if err := e.Reload(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload re-reads all pack files from the engine directory. A pack
// that fails to parse is skipped and logged, never fatal.
func (e *Engine) Reload() error {
	packs := map[string]compiledPack{}
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			e.mu.Lock()
			e.packs = packs
			e.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read rule pack dir: %w", err)
	}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".yaml") && !strings.HasSuffix(ent.Name(), ".yml") {
			continue
		}
		path := filepath.Join(e.dir, ent.Name())
		cp, err := loadPack(path)
		if err != nil {
			if e.log != nil {
				e.log.Warnw("skipping rule pack", "path", path, "err", err)
			}
			continue
		}
		packs[cp.name] = cp
	}
	e.mu.Lock()
	e.packs = packs
	e.mu.Unlock()
	if e.log != nil {
		e.log.Infow("rule packs loaded", "count", len(packs))
	}
	return nil
}

func loadPack(path string) (compiledPack, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return compiledPack{}, err
	}
	var p Pack
	if err := yaml.Unmarshal(b, &p); err != nil {
		return compiledPack{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	name := p.Name
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".yaml"), ".yml")
	}
	cp := compiledPack{name: name}
	ids := make([]string, 0, len(p.Rules))
	for id := range p.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids) // stable evaluation order regardless of map iteration
	for _, id := range ids {
		r := p.Rules[id]
		cr := compiledRule{id: id, rule: r}
		for _, pat := range r.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				continue
			}
			cr.patterns = append(cr.patterns, re)
		}
		if len(cr.patterns) > 0 {
			cp.rules = append(cp.rules, cr)
		}
	}
	return cp, nil
}

// SetEnabled restricts evaluation to the named packs. nil or empty
// enables all loaded packs.
func (e *Engine) SetEnabled(names []string) {
	e.mu.Lock()
	e.enabled = names
	e.mu.Unlock()
}

// Packs returns the names of all loaded packs, sorted.
func (e *Engine) Packs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.packs))
	for name := range e.packs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) Name() string        { return Source }
func (e *Engine) Languages() []string { return nil }

// Scan implements the scanner port. Rule-pack output is treated as a
// non-deterministic producer: packs change under hot reload, so their
// findings bypass external validation.
func (e *Engine) Scan(_ context.Context, source, _, language string) ([]types.Finding, error) {
	e.mu.RLock()
	packs := e.packs
	enabled := e.enabled
	e.mu.RUnlock()

	names := enabled
	if len(names) == 0 {
		names = make([]string, 0, len(packs))
		for n := range packs {
			names = append(names, n)
		}
		sort.Strings(names)
	}

	var out []types.Finding
	lines := strings.Split(source, "\n")
	for _, name := range names {
		cp, ok := packs[name]
		if !ok {
			continue
		}
		for _, cr := range cp.rules {
			if !ruleApplies(cr.rule, language) {
				continue
			}
			for _, re := range cr.patterns {
				for i, line := range lines {
					if !re.MatchString(line) {
						continue
					}
					out = append(out, makeFinding(cp.name, cr, i+1))
				}
			}
		}
	}
	return out, nil
}

func ruleApplies(r Rule, language string) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, l := range r.Languages {
		if l == language {
			return true
		}
	}
	return false
}

func makeFinding(pack string, cr compiledRule, line int) types.Finding {
	meta := map[string]string{"rule_pack": pack}
	if cr.rule.CWE != "" {
		meta["cwe"] = cr.rule.CWE
	}
	if cr.rule.Fix != "" {
		meta["fix"] = cr.rule.Fix
	}
	var compliance []string
	if len(cr.rule.PCIDSS) > 0 {
		compliance = append(compliance, "PCI-DSS "+strings.Join(cr.rule.PCIDSS, ", "))
	}
	if len(cr.rule.HIPAA) > 0 {
		compliance = append(compliance, "HIPAA "+strings.Join(cr.rule.HIPAA, ", "))
	}
	if len(cr.rule.NIST) > 0 {
		compliance = append(compliance, "NIST "+strings.Join(cr.rule.NIST, ", "))
	}
	if len(compliance) > 0 {
		meta["compliance"] = strings.Join(compliance, "; ")
	}
	msg := cr.rule.Description
	if msg == "" {
		msg = cr.rule.Name
	}
	return types.Finding{
		Kind:       cr.id,
		Severity:   types.ParseSeverity(cr.rule.Severity),
		Line:       line,
		Message:    msg,
		Source:     Source + ":" + pack,
		Confidence: types.ConfHigh,
		Metadata:   meta,
	}
}
