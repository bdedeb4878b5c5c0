package mergeguard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mergeguard/mergeguard/internal/ai"
	"github.com/mergeguard/mergeguard/internal/config"
	"github.com/mergeguard/mergeguard/internal/lang"
	"github.com/mergeguard/mergeguard/internal/logging"
	"github.com/mergeguard/mergeguard/internal/pipeline"
	"github.com/mergeguard/mergeguard/internal/report"
	"github.com/mergeguard/mergeguard/internal/rulepack"
	"github.com/mergeguard/mergeguard/internal/scanner"
	"github.com/mergeguard/mergeguard/internal/scanners"
	"github.com/mergeguard/mergeguard/internal/update"
)

var (
	flagLanguage   string
	flagGenerated  bool
	flagNoValidate bool
	flagPacksDir   string
	flagPacks      string
	flagWiden      bool
	flagAIEndpoint string
	flagTimeout    time.Duration
)

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagLanguage, "language", "", "override language detection (python, javascript, ...)")
	cmd.Flags().BoolVar(&flagGenerated, "generated", false, "treat input as machine-generated code")
	cmd.Flags().BoolVar(&flagNoValidate, "no-validation", false, "skip the external validation pass")
	cmd.Flags().StringVar(&flagPacksDir, "packs-dir", "", "directory of YAML rule packs")
	cmd.Flags().StringVar(&flagPacks, "packs", "", "only evaluate these rule packs (comma-separated names)")
	cmd.Flags().BoolVar(&flagWiden, "widen-escalation", false, "also raise low findings to medium for generated code")
	cmd.Flags().StringVar(&flagAIEndpoint, "ai-endpoint", "", "model service base URL for semantic analysis")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "deadline for the whole scanner fan-out")
}

func init() {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run all scanners over one file and report findings",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	rootCmd.AddCommand(cmd)
	addAnalysisFlags(cmd)
}

// analysis bundles the pipeline with its resolved run settings, built
// once per invocation from CLI > local > global config precedence.
type analysis struct {
	pipe     *pipeline.Pipeline
	validate bool
	timeout  time.Duration
	log      *zap.SugaredLogger
}

func newAnalysis(root string) (*analysis, error) {
	log, err := logging.New(flagDebug)
	if err != nil {
		return nil, err
	}

	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}

	set := []scanner.Scanner{
		scanners.NewStatic(),
		scanners.NewSecrets(),
		scanners.NewLicense(),
		scanners.NewDuplication(),
		scanners.NewStandards(),
	}

	if dir := pickString(flagPacksDir, lcfg.PacksDir, gcfg.PacksDir); dir != "" {
		eng, err := rulepack.NewEngine(dir, log)
		if err != nil {
			log.Warnw("rule packs unavailable", "dir", dir, "err", err)
		} else {
			if names := pickString(flagPacks, lcfg.EnabledPacks, gcfg.EnabledPacks); names != "" {
				eng.SetEnabled(splitList(names))
			}
			set = append(set, eng)
		}
	}

	endpoint := flagAIEndpoint
	if endpoint == "" {
		endpoint = lcfg.GetAIEndpoint()
	}
	if endpoint == "" {
		endpoint = gcfg.GetAIEndpoint()
	}

	var validator scanner.Validator
	if endpoint != "" {
		key := lcfg.GetAIKey()
		if key == "" {
			key = gcfg.GetAIKey()
		}
		var aiTimeout time.Duration
		if lcfg.AI != nil {
			aiTimeout = pickDuration(0, lcfg.AI.Timeout, nil)
		}
		analyzer := ai.New(endpoint, key, aiTimeout, log)
		set = append(set, analyzer)
		validator = analyzer
	}

	esc := pipeline.DefaultEscalation()
	if pickBool(flagWiden, lcfg.WidenEscalate, gcfg.WidenEscalate) {
		esc = pipeline.WidenedEscalation()
	}

	validate := !flagNoValidate
	if lcfg.Validation != nil {
		validate = validate && *lcfg.Validation
	} else if gcfg.Validation != nil {
		validate = validate && *gcfg.Validation
	}

	return &analysis{
		pipe: pipeline.New(set, pipeline.Options{
			Validator:  validator,
			Escalation: esc,
			Logger:     log,
		}),
		validate: validate && validator != nil,
		timeout:  pickDuration(flagTimeout, lcfg.Timeout, gcfg.Timeout),
		log:      log,
	}, nil
}

// inputFor reads one file into a pipeline input, resolving language.
func (a *analysis) inputFor(path string, data []byte) pipeline.Input {
	language := flagLanguage
	if language == "" {
		language = lang.Detect(path)
	}
	return pipeline.Input{
		Source:     string(data),
		Filename:   path,
		Language:   language,
		Generated:  flagGenerated,
		Validation: a.validate,
	}
}

func runAnalyze(_ *cobra.Command, args []string) error {
	if flagSelfUpdate {
		if err := selfUpdate(); err == nil {
			fmt.Fprintln(os.Stderr, "updated to latest; re-run command")
			return nil
		}
	}
	if !flagJSON && !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'mergeguard --self-update' to upgrade\n", latest)
		}
	}

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

	res, err := a.pipe.Run(ctx, a.inputFor(path, data))
	if err != nil {
		return fmt.Errorf("analysis error: %w", err)
	}

	if flagJSON {
		return report.WriteJSON(os.Stdout, report.Envelope{Result: &res}.WithCommit(root))
	}
	report.PrintFindings(os.Stdout, res.Findings, report.PrintOptions{
		NoColor:  flagNoColor,
		Duration: res.Duration,
		Filename: path,
	})
	if len(res.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "scanners failed (results partial): %v\n", res.Failed)
	}
	return nil
}
