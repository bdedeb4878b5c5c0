package mergeguard

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/mergeguard/mergeguard/internal/config"
	"github.com/mergeguard/mergeguard/internal/pipeline"
	"github.com/mergeguard/mergeguard/internal/report"
)

var (
	flagBatchRoot string
	flagInclude   string
	flagExclude   string
	flagMaxBytes  int64
)

// defaultExcludes keeps generated trees and dependency dirs out of a
// directory walk.
var defaultExcludes = []string{
	"**/node_modules/**", "**/vendor/**", "**/dist/**", "**/build/**",
	"**/.git/**", "**/*.min.js",
}

func init() {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze a directory tree and report the aggregate",
		RunE:  runBatch,
	}
	rootCmd.AddCommand(cmd)
	addAnalysisFlags(cmd)

	cmd.Flags().StringVarP(&flagBatchRoot, "path", "p", ".", "directory to analyze")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs (e.g. '**/*.py')")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
}

func runBatch(_ *cobra.Command, _ []string) error {
	root, _ := filepath.Abs(flagBatchRoot)

	a, err := newAnalysis(root)
	if err != nil {
		return err
	}

	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}
	include := splitList(pickString(flagInclude, lcfg.Include, gcfg.Include))
	exclude := append(splitList(pickString(flagExclude, lcfg.Exclude, gcfg.Exclude)), defaultExcludes...)
	maxBytes := pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes)

	files, err := walkTargets(root, include, exclude, maxBytes)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no files matched")
		return nil
	}

	inputs := make([]pipeline.Input, 0, len(files))
	for _, p := range files {
		data, err := os.ReadFile(p)
		if err != nil {
			a.log.Warnw("skipping unreadable file", "file", p, "err", err)
			continue
		}
		inputs = append(inputs, a.inputFor(relPath(root, p), data))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	batch := a.pipe.RunBatch(ctx, inputs)

	if flagJSON {
		return report.WriteJSON(os.Stdout, report.Envelope{Batch: &batch}.WithCommit(root))
	}
	report.PrintFindings(os.Stdout, batch.Findings, report.PrintOptions{
		NoColor:  flagNoColor,
		Duration: batch.Duration,
	})
	fmt.Fprintf(os.Stdout, "Files analyzed: %d\n", batch.Analyzed)
	for _, ex := range batch.Excluded {
		fmt.Fprintf(os.Stderr, "excluded from analysis: %s (%s)\n", ex.Filename, ex.Reason)
	}
	return nil
}

// walkTargets collects regular files under root that pass the glob
// filters and the size cap.
func walkTargets(root string, include, exclude []string, maxBytes int64) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if d.IsDir() {
			return nil
		}
		rel := relPath(root, path)
		for _, g := range exclude {
			if ok, _ := doublestar.Match(g, rel); ok {
				return nil
			}
		}
		if len(include) > 0 {
			matched := false
			for _, g := range include {
				if ok, _ := doublestar.Match(g, rel); ok {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
		}
		if info, err := d.Info(); err == nil && maxBytes > 0 && info.Size() > maxBytes {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
