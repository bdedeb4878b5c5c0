package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/mergeguard/mergeguard/internal/types"
)

// ExcludedItem records one input whose analysis failed at the pipeline
// level. Excluded items contribute nothing to the batch aggregate.
type ExcludedItem struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// BatchResult aggregates across the successful items of a batch run.
type BatchResult struct {
	Items      []Result               `json:"items"`
	Excluded   []ExcludedItem         `json:"excluded,omitempty"`
	Findings   []types.Finding        `json:"findings"`
	Total      int                    `json:"total"`
	BySeverity map[types.Severity]int `json:"by_severity"`
	BySource   map[string]int         `json:"by_source"`
	Analyzed   int                    `json:"files_analyzed"`
	Duration   time.Duration          `json:"duration"`
}

// RunBatch analyzes every input concurrently. One input's failure
// never fails the batch: it becomes an excluded item and the aggregate
// is computed from the successes only. Item order in the result
// follows input order regardless of completion timing.
func (p *Pipeline) RunBatch(ctx context.Context, inputs []Input) BatchResult {
	started := time.Now()

	type slot struct {
		res Result
		err error
	}
	slots := make([]slot, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			res, err := p.Run(ctx, in)
			slots[i] = slot{res: res, err: err}
		}(i, in)
	}
	wg.Wait()

	out := BatchResult{
		Findings:   []types.Finding{},
		BySeverity: map[types.Severity]int{},
		BySource:   map[string]int{},
	}
	for _, sev := range types.Severities {
		out.BySeverity[sev] = 0
	}
	for i, s := range slots {
		if s.err != nil {
			out.Excluded = append(out.Excluded, ExcludedItem{
				Filename: inputs[i].Filename,
				Reason:   s.err.Error(),
			})
			p.log.Warnw("batch item excluded", "file", inputs[i].Filename, "err", s.err)
			continue
		}
		out.Items = append(out.Items, s.res)
		out.Analyzed++
		out.Findings = append(out.Findings, s.res.Findings...)
		for sev, n := range s.res.BySeverity {
			out.BySeverity[sev] += n
		}
		for src, n := range s.res.BySource {
			out.BySource[src] += n
		}
	}
	out.Total = len(out.Findings)
	out.Duration = time.Since(started)
	return out
}
