// Package ai is the client for the external model service. It plays
// two roles in the pipeline: a deep-analysis scanner whose findings
// merge last, and the validation port that filters pattern-scanner
// findings down to confirmed true positives.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mergeguard/mergeguard/internal/types"
)

// Source is the producer name AI findings carry.
const Source = "ai-analyzer"

const defaultTimeout = 30 * time.Second

// Analyzer calls an external model endpoint over HTTP. The service is
// opaque to the pipeline: prompt construction and model choice live on
// the other side of the wire.
type Analyzer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *zap.SugaredLogger
}

// New builds an analyzer for the given endpoint. A zero timeout uses
// the package default; scanners own their timeouts per the port
// contract, so the HTTP client carries it rather than the pipeline.
func New(endpoint, apiKey string, timeout time.Duration, log *zap.SugaredLogger) *Analyzer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Analyzer{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

func (a *Analyzer) Name() string        { return Source }
func (a *Analyzer) Languages() []string { return nil }

type analyzeRequest struct {
	Code     string `json:"code"`
	Filename string `json:"filename"`
	Language string `json:"language"`
}

type validateRequest struct {
	Findings []types.Finding `json:"findings"`
	Code     string          `json:"code"`
	Language string          `json:"language"`
}

// Scan implements the scanner port via the service's /analyze route.
func (a *Analyzer) Scan(ctx context.Context, source, filename, language string) ([]types.Finding, error) {
	body, err := json.Marshal(analyzeRequest{Code: source, Filename: filename, Language: language})
	if err != nil {
		return nil, err
	}
	raw, err := a.post(ctx, "/analyze", body)
	if err != nil {
		return nil, err
	}
	findings, err := ParseFindings(raw)
	if err != nil {
		return nil, err
	}
	return enrich(findings, language), nil
}

// Validate implements the validation port via /validate. The returned
// list is the service's view of the true positives; the pipeline
// additionally enforces the subset-by-identity invariant.
func (a *Analyzer) Validate(ctx context.Context, findings []types.Finding, source, language string) ([]types.Finding, error) {
	body, err := json.Marshal(validateRequest{Findings: findings, Code: source, Language: language})
	if err != nil {
		return nil, err
	}
	raw, err := a.post(ctx, "/validate", body)
	if err != nil {
		return nil, err
	}
	return ParseFindings(raw)
}

func (a *Analyzer) post(ctx context.Context, route string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+route, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model service returned %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

// enrich fills fields the model tends to omit so downstream steps can
// rely on the invariant that severity and source are always present.
func enrich(findings []types.Finding, language string) []types.Finding {
	out := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		f.Source = Source
		if !f.Severity.Valid() {
			f.Severity = types.SevMedium
		}
		if f.Confidence == "" {
			f.Confidence = types.ConfMedium
		}
		f = f.WithMeta("language", language)
		out = append(out, f)
	}
	return out
}
