package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var auditRefHash string

var auditCmd = &cobra.Command{
	Use:   "audit <version-id>",
	Short: "Re-run the compliance checks on a persisted plan version",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditRefHash, "ref-hash", "", "output hash of a reference run for the reproducibility check")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	rep, err := svc.Audit(context.Background(), args[0], auditRefHash)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, rep); err != nil {
		return err
	}
	if !rep.AllPassed {
		return fmt.Errorf("audit failed with %d violations", rep.Violations)
	}
	return nil
}
