package report

import (
	"encoding/json"
	"io"

	"github.com/mergeguard/mergeguard/internal/git"
	"github.com/mergeguard/mergeguard/internal/pipeline"
	"github.com/mergeguard/mergeguard/internal/policy"
)

// Envelope is the machine-readable output shape for CI consumers.
type Envelope struct {
	Result   *pipeline.Result      `json:"result,omitempty"`
	Batch    *pipeline.BatchResult `json:"batch,omitempty"`
	Decision *policy.Decision      `json:"decision,omitempty"`
	Commit   string                `json:"commit,omitempty"`
}

// WriteJSON emits the envelope with stable indentation.
func WriteJSON(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// WithCommit annotates the envelope with the repository HEAD, when
// run inside a repository.
func (e Envelope) WithCommit(root string) Envelope {
	e.Commit = git.HeadCommit(root)
	return e
}
