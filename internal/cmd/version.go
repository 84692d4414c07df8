package cmd

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/adamancini/stewardctl/internal/output"
	"github.com/adamancini/stewardctl/internal/platform"
)

type versionView struct {
	Version  string `json:"version" yaml:"version"`
	Commit   string `json:"commit" yaml:"commit"`
	Date     string `json:"date" yaml:"date"`
	Go       string `json:"go" yaml:"go"`
	Platform string `json:"platform" yaml:"platform"`
}

func (v versionView) String() string {
	return fmt.Sprintf("stewardctl version %s (commit %s, built %s, %s, %s)",
		v.Version, v.Commit, v.Date, v.Go, v.Platform)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the stewardctl version and the platform tag used to pick
StewardX release binaries.

To check for a newer StewardX release, run 'stewardctl service install --check'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			return output.NewWriter(cmd.OutOrStdout(), format).Write(versionView{
				Version:  stewardctlVersion,
				Commit:   stewardctlCommit,
				Date:     stewardctlDate,
				Go:       goruntime.Version(),
				Platform: platform.Detect().Tag(),
			})
		},
	}
}
