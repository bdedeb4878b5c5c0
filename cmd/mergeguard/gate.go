package mergeguard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mergeguard/mergeguard/internal/audit"
	"github.com/mergeguard/mergeguard/internal/config"
	"github.com/mergeguard/mergeguard/internal/git"
	"github.com/mergeguard/mergeguard/internal/pipeline"
	"github.com/mergeguard/mergeguard/internal/policy"
	"github.com/mergeguard/mergeguard/internal/report"
)

var (
	flagGateRoot   string
	flagPolicyFile string
	flagStaged     bool
	flagBase       string
	flagNoAudit    bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "gate [files...]",
		Short: "Analyze changes and fail when the policy blocks the merge",
		Long:  "Gate analyzes the given files (or the staged/diffed set from git), evaluates the findings against the active policy, and exits non-zero when the decision is a blocking fail.",
		RunE:  runGate,
	}
	rootCmd.AddCommand(cmd)
	addAnalysisFlags(cmd)

	cmd.Flags().StringVarP(&flagGateRoot, "path", "p", ".", "repository root")
	cmd.Flags().StringVar(&flagPolicyFile, "policy", "", "policy YAML file (default: config, then built-in)")
	cmd.Flags().BoolVar(&flagStaged, "staged", false, "gate the staged changes")
	cmd.Flags().StringVar(&flagBase, "base", "", "gate the diff vs base branch (e.g. main)")
	cmd.Flags().BoolVar(&flagNoAudit, "no-audit", false, "skip writing the audit log")
}

func runGate(_ *cobra.Command, args []string) error {
	root, _ := filepath.Abs(flagGateRoot)

	a, err := newAnalysis(root)
	if err != nil {
		return err
	}
	cfg, err := resolveGatePolicy(root)
	if err != nil {
		return err
	}

	files, contents, err := gateTargets(root, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to gate")
		return nil
	}

	inputs := make([]pipeline.Input, len(files))
	for i := range files {
		inputs[i] = a.inputFor(files[i], contents[i])
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	batch := a.pipe.RunBatch(ctx, inputs)
	decision := policy.Decide(cfg, batch.Findings, flagGenerated)

	if !flagNoAudit {
		log := audit.NewLog(root)
		for _, item := range batch.Items {
			rec := audit.NewRecord(item.Filename, item.Language, item.Generated,
				item.Findings, decision, item.Duration, item.Failed)
			if err := log.Append(rec); err != nil {
				a.log.Warnw("audit append failed", "file", item.Filename, "err", err)
			}
		}
	}

	if flagJSON {
		env := report.Envelope{Batch: &batch, Decision: &decision}.WithCommit(root)
		if err := report.WriteJSON(os.Stdout, env); err != nil {
			return err
		}
	} else {
		report.PrintFindings(os.Stdout, batch.Findings, report.PrintOptions{
			NoColor:  flagNoColor,
			Duration: batch.Duration,
		})
		for _, ex := range batch.Excluded {
			fmt.Fprintf(os.Stderr, "excluded from analysis: %s (%s)\n", ex.Filename, ex.Reason)
		}
		fmt.Fprintln(os.Stdout)
		report.PrintDecision(os.Stdout, decision, flagNoColor)
	}

	if decision.Status == policy.StatusFail {
		os.Exit(1)
	}
	return nil
}

// resolveGatePolicy picks the policy file flag first, then the inline
// config policy, then the built-in default.
func resolveGatePolicy(root string) (policy.Config, error) {
	if flagPolicyFile != "" {
		return policy.LoadFile(flagPolicyFile)
	}
	if c, err := config.LoadLocal(root); err == nil && c.Policy != nil {
		cfg := c.GetPolicy()
		if err := cfg.Validate(); err != nil {
			return policy.Config{}, err
		}
		return cfg, nil
	}
	if c, err := config.LoadGlobal(); err == nil && c.Policy != nil {
		cfg := c.GetPolicy()
		if err := cfg.Validate(); err != nil {
			return policy.Config{}, err
		}
		return cfg, nil
	}
	return policy.Default(), nil
}

// gateTargets resolves the files to gate: explicit args, the staged
// set, or the diff against a base branch.
func gateTargets(root string, args []string) ([]string, [][]byte, error) {
	switch {
	case len(args) > 0:
		var files []string
		var data [][]byte
		for _, p := range args {
			b, err := os.ReadFile(p)
			if err != nil {
				return nil, nil, fmt.Errorf("read %s: %w", p, err)
			}
			files = append(files, p)
			data = append(data, b)
		}
		return files, data, nil
	case flagStaged:
		return git.StagedFiles(root)
	case flagBase != "":
		return git.DiffAgainst(root, flagBase)
	}
	return nil, nil, fmt.Errorf("nothing to gate: pass files, --staged, or --base")
}
