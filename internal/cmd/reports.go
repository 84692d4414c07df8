package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/stewardctl/internal/output"
)

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Show task execution reports",
	}

	cmd.AddCommand(newReportsListCmd())
	cmd.AddCommand(newReportsLatestCmd())
	cmd.AddCommand(newReportsTaskCmd())

	return cmd
}

func newReportsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [ID]",
		Short: "List the latest reports, or show one report in full",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				raw, err := rt.client().GetReport(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.out.RawJSON(raw)
			}
			reports, err := rt.client().LatestReports(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Write(output.Reports(reports))
		},
	}
}

func newReportsLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "List the latest reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			reports, err := rt.client().LatestReports(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Write(output.Reports(reports))
		},
	}
}

func newReportsTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "task ID",
		Short: "List the reports of one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			reports, err := rt.client().TaskReports(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.out.Write(output.Reports(reports))
		},
	}
}
