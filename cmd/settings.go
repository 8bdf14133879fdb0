package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spigell/cv-matcher/internal/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change assessment dimensions and the ranking threshold",
}

func init() {
	rootCmd.AddCommand(settingsCmd)

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, false, func(_ context.Context, a *application) error {
				return printSettings(cmd, a.state.Settings())
			})
		},
	}

	threshold := &cobra.Command{
		Use:   "threshold <0-100>",
		Short: "Set the ranking threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("threshold: %w", err)
			}
			return mutateSettings(cmd, func(ctx context.Context, a *application) (domain.Settings, error) {
				return a.state.SetThreshold(ctx, value)
			})
		},
	}

	enable := &cobra.Command{
		Use:   "enable <dimension>",
		Short: "Activate an assessment dimension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateSettings(cmd, func(ctx context.Context, a *application) (domain.Settings, error) {
				return a.state.SetDimensionActive(ctx, args[0], true)
			})
		},
	}

	disable := &cobra.Command{
		Use:   "disable <dimension>",
		Short: "Deactivate an assessment dimension (at least one stays active)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateSettings(cmd, func(ctx context.Context, a *application) (domain.Settings, error) {
				return a.state.SetDimensionActive(ctx, args[0], false)
			})
		},
	}

	add := &cobra.Command{
		Use:   "add-dimension <id> <label>",
		Short: "Add a custom assessment dimension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guidance, _ := cmd.Flags().GetString("guidance")
			inactive, _ := cmd.Flags().GetBool("inactive")
			return mutateSettings(cmd, func(ctx context.Context, a *application) (domain.Settings, error) {
				return a.state.AddDimension(ctx, domain.Dimension{
					ID:       args[0],
					Label:    args[1],
					Guidance: guidance,
					Active:   !inactive,
				})
			})
		},
	}
	add.Flags().String("guidance", "", "what the model should look at for this dimension")
	add.Flags().Bool("inactive", false, "add the dimension switched off")

	remove := &cobra.Command{
		Use:   "remove-dimension <id>",
		Short: "Remove a custom assessment dimension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateSettings(cmd, func(ctx context.Context, a *application) (domain.Settings, error) {
				return a.state.RemoveDimension(ctx, args[0])
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mutateSettings(cmd, func(ctx context.Context, a *application) (domain.Settings, error) {
				return a.state.ResetSettings(ctx), nil
			})
		},
	}

	settingsCmd.AddCommand(show, threshold, enable, disable, add, remove, reset)
}

func mutateSettings(cmd *cobra.Command, change func(ctx context.Context, a *application) (domain.Settings, error)) error {
	return withApp(cmd, false, func(ctx context.Context, a *application) error {
		settings, err := change(ctx, a)
		if err != nil {
			return err
		}
		return printSettings(cmd, settings)
	})
}

func printSettings(cmd *cobra.Command, settings domain.Settings) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "threshold:\t%s\n\n", strconv.FormatFloat(settings.Threshold, 'f', -1, 64))
	fmt.Fprintln(w, "ID\tLABEL\tACTIVE\tBUILT-IN")
	for _, d := range settings.Dimensions {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", d.ID, d.Label, d.Active, d.Default)
	}
	return w.Flush()
}
