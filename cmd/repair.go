package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetroster/rosterd/core/plan"
	"github.com/fleetroster/rosterd/core/repair"
)

var (
	repairPlanID    string
	repairAbsent    []string
	repairFromDay   int
	repairToDay     int
	repairActorID   string
	repairOpKey     string
	repairMaxTours  int
	repairMaxDrvrs  int
	repairMaxSplits int
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair a locked plan after driver absences",
}

var repairPrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build a repair proposal and stage a draft version",
	RunE:  runRepairPrepare,
}

var repairConfirmCmd = &cobra.Command{
	Use:   "confirm <draft-id>",
	Short: "Confirm a prepared repair draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepairConfirm,
}

var repairCancelCmd = &cobra.Command{
	Use:   "cancel <draft-id>",
	Short: "Abandon a prepared repair draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepairCancel,
}

func init() {
	repairPrepareCmd.Flags().StringVar(&repairPlanID, "plan", "", "locked or published plan version id")
	repairPrepareCmd.Flags().StringSliceVar(&repairAbsent, "absent", nil, "absent driver ids")
	repairPrepareCmd.Flags().IntVar(&repairFromDay, "from-day", 0, "first absent day (default whole week)")
	repairPrepareCmd.Flags().IntVar(&repairToDay, "to-day", 0, "last absent day (default whole week)")
	repairPrepareCmd.Flags().IntVar(&repairMaxTours, "max-tours", 0, "change budget: max moved tours")
	repairPrepareCmd.Flags().IntVar(&repairMaxDrvrs, "max-drivers", 0, "change budget: max receiving drivers")
	repairPrepareCmd.Flags().IntVar(&repairMaxSplits, "max-splits", 0, "change budget: max moved split blocks")
	_ = repairPrepareCmd.MarkFlagRequired("plan")
	_ = repairPrepareCmd.MarkFlagRequired("absent")

	repairConfirmCmd.Flags().StringVar(&repairOpKey, "key", "", "operation key for idempotent confirmation")
	_ = repairConfirmCmd.MarkFlagRequired("key")

	repairCmd.PersistentFlags().StringVar(&repairActorID, "actor", "dispatcher", "acting dispatcher id")
	repairCmd.AddCommand(repairPrepareCmd)
	repairCmd.AddCommand(repairConfirmCmd)
	repairCmd.AddCommand(repairCancelCmd)
	rootCmd.AddCommand(repairCmd)
}

func repairActor() plan.Actor {
	return plan.Actor{ID: repairActorID, Kind: plan.ActorHuman}
}

func runRepairPrepare(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	req := repair.Request{
		PlanVersionID: repairPlanID,
		Budget: repair.Budget{
			MaxChangedTours:   repairMaxTours,
			MaxChangedDrivers: repairMaxDrvrs,
			MaxSplits:         repairMaxSplits,
		},
	}
	for _, id := range repairAbsent {
		req.Absences = append(req.Absences, repair.Absence{
			DriverID: id,
			FromDay:  repairFromDay,
			ToDay:    repairToDay,
		})
	}
	prop, err := svc.PrepareRepair(context.Background(), req, repairActor())
	if err != nil {
		return err
	}
	if err := printJSON(cmd, prop.Summarize()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "draft %s staged; confirm with: rosterd repair confirm %s --key <op-key>\n",
		prop.DraftID, prop.DraftID)
	if !prop.Legal {
		fmt.Fprintln(cmd.OutOrStdout(), "warning: the best available repair is not legal and cannot be confirmed")
	}
	return nil
}

func runRepairConfirm(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	res, err := svc.ConfirmRepair(context.Background(), args[0], repairOpKey, repairActor())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "plan %s superseded by %s\n", res.ParentID, res.DraftID)
	return nil
}

func runRepairCancel(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	if err := svc.CancelRepair(context.Background(), args[0], repairActor()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "repair draft %s cancelled\n", args[0])
	return nil
}
