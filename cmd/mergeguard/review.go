package mergeguard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mergeguard/mergeguard/internal/tui"
)

func init() {
	cmd := &cobra.Command{
		Use:   "review <file>",
		Short: "Browse a file's findings interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  runReview,
	}
	rootCmd.AddCommand(cmd)
	addAnalysisFlags(cmd)
}

func runReview(_ *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	root, _ := filepath.Abs(filepath.Dir(path))

	a, err := newAnalysis(root)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	in := a.inputFor(path, data)
	res, err := a.pipe.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("analysis error: %w", err)
	}
	return tui.Run(path, in.Language, in.Source, res.Findings)
}
