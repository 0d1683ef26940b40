package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetroster/rosterd/core/audit"
	"github.com/fleetroster/rosterd/core/model"
)

var (
	forecastPath string
	driversPath  string
	solveSeed    int64
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a weekly forecast into an audited plan version",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&forecastPath, "forecast", "", "forecast JSON file")
	solveCmd.Flags().StringVar(&driversPath, "drivers", "", "driver pool JSON file")
	solveCmd.Flags().Int64Var(&solveSeed, "seed", 1, "solve seed")
	_ = solveCmd.MarkFlagRequired("forecast")
	_ = solveCmd.MarkFlagRequired("drivers")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var forecast model.Forecast
	if err := readJSON(forecastPath, &forecast); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	var drivers []model.Driver
	if err := readJSON(driversPath, &drivers); err != nil {
		return fmt.Errorf("drivers: %w", err)
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	v, res, rep, err := svc.Solve(ctx, forecast, drivers, solveSeed)
	var failed *audit.FailedError
	if errors.As(err, &failed) {
		fmt.Fprintf(cmd.OutOrStdout(), "plan %s solved but audit failed: %d violations in %v\n",
			v.ID, failed.Report.Violations, failed.Report.FailedChecks())
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "plan %s (%s), %d audit checks passed\n", v.ID, v.Status, len(rep.Results))
	fmt.Fprintf(cmd.OutOrStdout(), "output hash %s\n", res.OutputHash)
	return printJSON(cmd, res.KPIs)
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
