package mergeguard

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mergeguard/mergeguard/internal/logging"
	"github.com/mergeguard/mergeguard/internal/rulepack"
)

var flagPacksListDir string

func init() {
	packs := &cobra.Command{Use: "packs", Short: "Manage organizational rule packs"}
	rootCmd.AddCommand(packs)

	list := &cobra.Command{
		Use:   "list",
		Short: "List the rule packs loaded from the packs directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			log, err := logging.New(flagDebug)
			if err != nil {
				return err
			}
			eng, err := rulepack.NewEngine(flagPacksListDir, log)
			if err != nil {
				return err
			}
			names := eng.Packs()
			if len(names) == 0 {
				fmt.Println("no rule packs loaded")
				return nil
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
	list.Flags().StringVar(&flagPacksListDir, "packs-dir", "rules", "directory of YAML rule packs")
	packs.AddCommand(list)

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Reload rule packs as their files change (until interrupted)",
		RunE: func(_ *cobra.Command, _ []string) error {
			log, err := logging.New(flagDebug)
			if err != nil {
				return err
			}
			eng, err := rulepack.NewEngine(flagPacksListDir, log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", flagPacksListDir)
			return eng.Watch(ctx)
		},
	}
	watch.Flags().StringVar(&flagPacksListDir, "packs-dir", "rules", "directory of YAML rule packs")
	packs.AddCommand(watch)
}
