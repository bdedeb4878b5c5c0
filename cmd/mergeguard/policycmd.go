package mergeguard

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mergeguard/mergeguard/internal/policy"
)

var (
	flagPolicyPath string
	flagShowStrict bool
)

func init() {
	pol := &cobra.Command{Use: "policy", Short: "Inspect and validate gate policies"}
	rootCmd.AddCommand(pol)

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective policy",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := policy.Default()
			if flagPolicyPath != "" {
				var err error
				cfg, err = policy.LoadFile(flagPolicyPath)
				if err != nil {
					return err
				}
			}
			if flagShowStrict {
				cfg = cfg.Strict()
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	show.Flags().StringVar(&flagPolicyPath, "policy", "", "policy YAML file (default: built-in)")
	show.Flags().BoolVar(&flagShowStrict, "strict", false, "show the strict derivation applied to generated code")
	pol.AddCommand(show)

	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a policy file for errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if _, err := policy.LoadFile(args[0]); err != nil {
				return err
			}
			fmt.Println("policy OK")
			return nil
		},
	}
	pol.AddCommand(validate)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter policy file",
		RunE: func(_ *cobra.Command, _ []string) error {
			const path = ".mergeguard-policy.yml"
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			out, err := yaml.Marshal(policy.Default())
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, out, 0644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	pol.AddCommand(initCmd)
}
