package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pjbaur/potaplan/pkg/stores"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage activation plans",
	}

	cmd.AddCommand(newPlanAddCommand())
	cmd.AddCommand(newPlanListCommand())
	cmd.AddCommand(newPlanShowCommand())
	cmd.AddCommand(newPlanNotesCommand())
	cmd.AddCommand(newPlanTransitionCommand("finalize", "Finalize a draft plan"))
	cmd.AddCommand(newPlanTransitionCommand("complete", "Mark a finalized plan completed"))
	cmd.AddCommand(newPlanTransitionCommand("cancel", "Cancel a plan"))
	cmd.AddCommand(newPlanDeleteCommand())
	return cmd
}

func parsePlanID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid plan id %q", arg)
	}
	return id, nil
}

func newPlanAddCommand() *cobra.Command {
	var (
		date      string
		timeOfDay string
		duration  float64
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "add <park-reference>",
		Short: "Create a draft plan for a park",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			park, err := a.parks.FindByReference(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if park == nil {
				return fmt.Errorf("no park with reference %s; sync or import the catalog first", args[0])
			}

			create := stores.PlanCreate{
				ParkID:      park.ID,
				PlannedDate: date,
			}
			if timeOfDay != "" {
				create.PlannedTime = &timeOfDay
			}
			if duration > 0 {
				create.DurationHours = &duration
			}
			if notes != "" {
				create.Notes = &notes
			}

			plan, err := a.plans.Create(cmd.Context(), create)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(plan)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created plan %d: %s at %s on %s\n",
				plan.ID, plan.Status, park.Reference, plan.PlannedDate)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "planned date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "planned start time (HH:MM)")
	cmd.Flags().Float64Var(&duration, "duration", 0, "planned duration in hours")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.MarkFlagRequired("date")
	return cmd
}

func newPlanListCommand() *cobra.Command {
	var (
		status   string
		upcoming bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans, newest date last",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			opts := stores.PlanFindOptions{Upcoming: upcoming, Limit: limit}
			if status != "" {
				st := stores.PlanStatus(status)
				if !st.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
				opts.Status = &st
			}

			plans, err := a.plans.Find(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(plans)
			}
			out := cmd.OutOrStdout()
			for _, plan := range plans {
				ref := "?"
				if plan.Park != nil {
					ref = plan.Park.Reference
				}
				fmt.Fprintf(out, "%4d  %-10s %-10s %s\n", plan.ID, plan.PlannedDate, plan.Status, ref)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (draft, finalized, completed, cancelled)")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "only plans dated today or later")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to return")
	return cmd
}

func newPlanShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlanID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			plan, err := a.plans.FindByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if plan == nil {
				return fmt.Errorf("no plan with id %d", id)
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(plan)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plan %d (%s)\n", plan.ID, plan.Status)
			if plan.Park != nil {
				fmt.Fprintf(out, "  park:    %s  %s\n", plan.Park.Reference, plan.Park.Name)
			}
			fmt.Fprintf(out, "  date:    %s\n", plan.PlannedDate)
			if plan.PlannedTime != nil {
				fmt.Fprintf(out, "  time:    %s\n", *plan.PlannedTime)
			}
			if plan.DurationHours != nil {
				fmt.Fprintf(out, "  hours:   %.1f\n", *plan.DurationHours)
			}
			if plan.Notes != nil {
				fmt.Fprintf(out, "  notes:   %s\n", *plan.Notes)
			}
			if plan.WeatherSnapshot != nil {
				fmt.Fprintf(out, "  weather: %s\n", *plan.WeatherSnapshot)
			}
			fmt.Fprintf(out, "  updated: %s\n", plan.UpdatedAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newPlanNotesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <id> <text>",
		Short: "Replace a plan's notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlanID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			plan, err := a.plans.Update(cmd.Context(), id, stores.PlanUpdate{Notes: &args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated notes for plan %d\n", plan.ID)
			return nil
		},
	}
}

func newPlanTransitionCommand(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlanID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			var plan *stores.Plan
			switch verb {
			case "finalize":
				plan, err = a.planner.Finalize(cmd.Context(), id)
			case "complete":
				plan, err = a.planner.Complete(cmd.Context(), id)
			case "cancel":
				plan, err = a.planner.Cancel(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan %d is now %s\n", plan.ID, plan.Status)
			return nil
		},
	}
}

func newPlanDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a plan permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlanID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.plans.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %d\n", id)
			return nil
		},
	}
}
