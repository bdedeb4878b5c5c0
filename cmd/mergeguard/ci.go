package mergeguard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func init() {
	ci := &cobra.Command{Use: "ci", Short: "CI template helpers for multiple providers"}
	rootCmd.AddCommand(ci)

	var provider string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a CI pipeline template for your provider",
		RunE: func(_ *cobra.Command, _ []string) error {
			var path string
			var content string
			switch provider {
			case "github":
				path = filepath.Join(".github", "workflows", "mergeguard.yml")
				content = `name: mergeguard
on: [pull_request]
jobs:
  gate:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
        with:
          fetch-depth: 0
      - uses: actions/setup-go@v5
        with:
          go-version: '1.25'
      - run: go build -o bin/mergeguard .
      - run: ./bin/mergeguard gate --base origin/${{ github.base_ref }} --json | tee mergeguard-report.json
      - uses: actions/upload-artifact@v4
        if: always()
        with:
          name: mergeguard-report
          path: mergeguard-report.json
`
			case "gitlab":
				path = ".gitlab-ci.yml"
				content = `stages: [gate]
gate:
  stage: gate
  image: golang:1.25
  script:
    - go version
    - go build -o bin/mergeguard .
    - ./bin/mergeguard gate --base origin/main --json | tee mergeguard-report.json
  artifacts:
    when: always
    paths:
      - mergeguard-report.json
`
			case "bitbucket":
				path = "bitbucket-pipelines.yml"
				content = `pipelines:
  pull-requests:
    '**':
      - step:
          name: Mergeguard Gate
          image: golang:1.25
          caches:
            - go
          script:
            - go version
            - go build -o bin/mergeguard .
            - ./bin/mergeguard gate --base origin/main --json | tee mergeguard-report.json
          artifacts:
            - mergeguard-report.json
`
			default:
				return fmt.Errorf("unknown --provider. Supported: github, gitlab, bitbucket")
			}
			// ensure parent directories exist if needed
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&provider, "provider", "", "CI provider: github | gitlab | bitbucket")
	if err := initCmd.MarkFlagRequired("provider"); err != nil {
		// fallback: print a hint if cobra API changes
		fmt.Fprintln(os.Stderr, "warning: could not mark --provider as required:", err)
	}
	ci.AddCommand(initCmd)
}
