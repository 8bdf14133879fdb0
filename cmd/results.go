package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/filtering"
	"github.com/spigell/cv-matcher/internal/utils"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect, rank and delete stored match results",
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	list := &cobra.Command{
		Use:   "list",
		Short: "List results, best first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFilteredResults(cmd, func(a *application, results *domain.Results) error {
				return printResultsTable(cmd, results)
			})
		},
	}

	report := &cobra.Command{
		Use:   "report",
		Short: "Print results grouped by job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFilteredResults(cmd, func(a *application, results *domain.Results) error {
				pretty, _ := json.MarshalIndent(results.ReportByJob(), "", "  ")
				a.logger.Info(string(pretty), zap.Int("results count", results.Len()))
				return nil
			})
		},
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Write the results to a temporary JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFilteredResults(cmd, func(a *application, results *domain.Results) error {
				filename, err := results.DumpToTmpFile()
				if err != nil {
					return fmt.Errorf("dump results to file: %w", err)
				}
				a.logger.Info("dumping result to file", zap.String("filename", filename))
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{list, report, dump} {
		addFilterFlags(c)
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one result with all dimension scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(_ context.Context, a *application) error {
				result, err := a.state.GetResult(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *application) error {
				if err := a.state.DeleteResult(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted result %s\n", args[0])
				return nil
			})
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete every result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return withApp(cmd, false, func(ctx context.Context, a *application) error {
				if !yes {
					ok, err := confirm(fmt.Sprintf("Delete all %d results?", a.state.Results().Len()))
					if err != nil || !ok {
						return err
					}
				}
				removed := a.state.ClearResults(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d result(s)\n", removed)
				return nil
			})
		},
	}
	clear.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	resultsCmd.AddCommand(list, show, report, dump, del, clear)
}

func addFilterFlags(c *cobra.Command) {
	c.Flags().Float64("min-score", -1, "hide results scoring below this value")
	c.Flags().Bool("ranked", false, "hide results below the settings threshold")
	c.Flags().String("candidate", "", "comma separated candidate ids to keep")
	c.Flags().String("job", "", "comma separated job ids to keep")
	c.Flags().Int("top", 0, "keep only the best N results")
	c.Flags().StringP("exclude-file", "e", "", "file with result ids to hide, one per line")
}

func filterConfigFromFlags(cmd *cobra.Command, settings domain.Settings) *filtering.Config {
	candidates, _ := cmd.Flags().GetString("candidate")
	jobs, _ := cmd.Flags().GetString("job")
	top, _ := cmd.Flags().GetInt("top")
	excludeFile, _ := cmd.Flags().GetString("exclude-file")

	cfg := &filtering.Config{
		Candidates:  utils.SplitList(candidates),
		Jobs:        utils.SplitList(jobs),
		Top:         top,
		ExcludeFile: excludeFile,
	}

	if cmd.Flags().Changed("min-score") {
		score, _ := cmd.Flags().GetFloat64("min-score")
		cfg.MinScore = &score
	} else if ranked, _ := cmd.Flags().GetBool("ranked"); ranked {
		threshold := settings.Threshold
		cfg.MinScore = &threshold
	}
	return cfg
}

func withFilteredResults(cmd *cobra.Command, fn func(a *application, results *domain.Results) error) error {
	return withApp(cmd, false, func(ctx context.Context, a *application) error {
		cfg := filterConfigFromFlags(cmd, a.state.Settings())

		steps := filtering.Default()
		for _, status := range filtering.Describe(steps) {
			a.logger.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled))
		}

		results, err := filtering.Run(ctx, cfg, filtering.Deps{Logger: a.logger}, steps, a.state.Results())
		if err != nil {
			return fmt.Errorf("filtering failed: %w", err)
		}
		return fn(a, results)
	})
}

func printResultsTable(cmd *cobra.Command, results *domain.Results) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tCANDIDATE\tJOB\tCREATED\tID")
	for _, r := range results.Items {
		fmt.Fprintf(w, "%.1f\t%s\t%s\t%s\t%s\n",
			r.OverallScore, r.CandidateName, r.JobTitle, r.CreatedAt.Format("2006-01-02 15:04"), r.ID)
	}
	return w.Flush()
}
