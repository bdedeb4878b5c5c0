// Package core provides a small, stable facade over mergeguard's
// internal analysis pipeline and policy engine for external
// integrations. It deliberately re-exports a narrow API surface so
// bots and third-party tools can depend on a stable import path
// without exposing internal implementation packages.
//
// Example:
//
//	res, err := core.Analyze(ctx, core.Input{Source: src, Filename: "app.py", Language: "python"})
//	if err != nil { /* handle */ }
//	decision := core.Decide(core.DefaultPolicy(), res.Findings, false)
//	_ = core.MarshalFindings(os.Stdout, res.Findings)
package core
