package hermit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// ciTemplates maps a provider to the file it writes and its contents. Every
// template scans .cache, keeps both reports as artifacts and gates on HIGH.
var ciTemplates = map[string]struct{ path, content string }{
	"github": {".github/workflows/hermit.yml", `name: hermit
on: [push, pull_request]
permissions:
  contents: read
  security-events: write
jobs:
  scan:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-go@v5
        with:
          go-version: '1.25.x'
      - run: go install github.com/hermit-shells/hermit@latest
      - run: hermit scan --cache-dir .cache --json-out hermit.json --sarif-out hermit.sarif --fail-on HIGH
      - uses: github/codeql-action/upload-sarif@v3
        if: always()
        with:
          sarif_file: hermit.sarif
      - uses: actions/upload-artifact@v4
        if: always()
        with:
          name: hermit-findings
          path: hermit.json
`},
	"gitlab": {".gitlab-ci.yml", `stages: [scan]
hermit:
  stage: scan
  image: golang:1.25
  script:
    - go install github.com/hermit-shells/hermit@latest
    - hermit scan --cache-dir .cache --json-out hermit.json --sarif-out hermit.sarif --fail-on HIGH
  artifacts:
    when: always
    paths:
      - hermit.json
      - hermit.sarif
`},
	"bitbucket": {"bitbucket-pipelines.yml", `pipelines:
  default:
    - step:
        name: hermit scan
        image: golang:1.25
        caches:
          - go
        script:
          - go install github.com/hermit-shells/hermit@latest
          - hermit scan --cache-dir .cache --json-out hermit.json --sarif-out hermit.sarif --fail-on HIGH
        artifacts:
          - hermit.json
          - hermit.sarif
`},
	"azure": {"azure-pipelines.yml", `trigger:
- main

pool:
  vmImage: 'ubuntu-latest'

steps:
- task: GoTool@0
  inputs:
    version: '1.25.x'
- script: |
    go install github.com/hermit-shells/hermit@latest
    $(go env GOPATH)/bin/hermit scan --cache-dir .cache --json-out hermit.json --sarif-out hermit.sarif --fail-on HIGH
  displayName: 'hermit scan'
- publish: hermit.sarif
  artifact: hermit-sarif
  condition: succeededOrFailed()
`},
}

func init() {
	ci := &cobra.Command{Use: "ci", Short: "CI template helpers for multiple providers"}
	rootCmd.AddCommand(ci)

	var provider string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a CI pipeline template for your provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpl, ok := ciTemplates[provider]
			if !ok {
				return fmt.Errorf("unknown --provider %q. Supported: github, gitlab, bitbucket, azure", provider)
			}
			if !force {
				if _, err := os.Stat(tpl.path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", tpl.path)
				}
			}
			if err := os.MkdirAll(filepath.Dir(tpl.path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(tpl.path, []byte(tpl.content), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", tpl.path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&provider, "provider", "", "CI provider: github | gitlab | bitbucket | azure")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	if err := initCmd.MarkFlagRequired("provider"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --provider as required:", err)
	}
	ci.AddCommand(initCmd)
}
