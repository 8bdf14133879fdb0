package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/utils"
)

const (
	PromptYes  = "Yes"
	PromptNo   = "No"
	PromptDone = "done"
	PromptAll  = "all"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score the selected candidates against the selected jobs and store the results",
	Long: `Scores every selected candidate against every selected job. Pairs run concurrently;
a failing pair is reported and never affects the others. Without --candidates/--jobs
the documents are picked interactively.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("candidates", "c", "", "comma separated candidate ids")
	matchCmd.Flags().StringP("jobs", "J", "", "comma separated job ids")
	matchCmd.Flags().BoolP("all", "a", false, "match every stored candidate against every stored job")
	matchCmd.Flags().Int("concurrency", 0, "maximum pairs scored at once (0 means no limit)")
	matchCmd.Flags().Duration("pair-timeout", 0, "timeout for one pair (default 1m0s)")

	viper.BindPFlag("matching.concurrency", matchCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("matching.pair-timeout", matchCmd.Flags().Lookup("pair-timeout"))
}

func runMatch(cmd *cobra.Command) error {
	all, _ := cmd.Flags().GetBool("all")
	candidatesFlag, _ := cmd.Flags().GetString("candidates")
	jobsFlag, _ := cmd.Flags().GetString("jobs")

	return withApp(cmd, true, func(ctx context.Context, a *application) error {
		candidateIDs, err := selectIDs(a, domain.KindCandidate, utils.SplitList(candidatesFlag), all)
		if err != nil {
			return err
		}
		jobIDs, err := selectIDs(a, domain.KindJob, utils.SplitList(jobsFlag), all)
		if err != nil {
			return err
		}

		a.logger.Info("starting the matching",
			zap.Int("candidates", len(candidateIDs)),
			zap.Int("jobs", len(jobIDs)),
		)

		report, err := a.matcher.Match(ctx, candidateIDs, jobIDs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range report.Successes {
			fmt.Fprintf(out, "%5.1f  %s  %s  (%s)\n", r.OverallScore, r.CandidateName, r.JobTitle, r.ID)
		}
		for _, msg := range report.Messages() {
			cmd.PrintErrln(msg)
		}

		a.logger.Info("matching done",
			zap.Int("stored", report.Added),
			zap.Int("failed", len(report.Failures)),
		)
		return nil
	})
}

// selectIDs returns the explicit ids, every stored id with --all, or asks the user.
func selectIDs(a *application, kind domain.Kind, explicit []string, all bool) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	docs, err := a.state.Documents(kind)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no %s documents stored", kind)
	}

	if all {
		ids := make([]string, 0, len(docs))
		for _, doc := range docs {
			ids = append(ids, doc.ID)
		}
		return ids, nil
	}

	return promptDocuments(kind, docs)
}

// promptDocuments lets the user pick documents one by one until done.
func promptDocuments(kind domain.Kind, docs []domain.Document) ([]string, error) {
	var selected []string
	chosen := make(map[string]bool)

	for {
		items := []string{}
		for _, doc := range docs {
			if chosen[doc.ID] {
				continue
			}
			items = append(items, fmt.Sprintf("%s %s", doc.ID, doc.Name))
		}
		if len(selected) == 0 {
			items = append(items, PromptAll)
		} else {
			items = append(items, PromptDone)
		}

		docPrompt := promptui.Select{
			Label: fmt.Sprintf("Choose a %s and press ENTER (%d selected)", kind, len(selected)),
			Items: items,
			Size:  10,
		}

		_, picked, err := docPrompt.Run()
		if err != nil {
			return nil, err
		}

		switch picked {
		case PromptDone:
			return selected, nil
		case PromptAll:
			for _, doc := range docs {
				selected = append(selected, doc.ID)
			}
			return selected, nil
		default:
			id := strings.Split(picked, " ")[0]
			chosen[id] = true
			selected = append(selected, id)
			if len(selected) == len(docs) {
				return selected, nil
			}
		}
	}
}

// withApp builds the application for one command, runs fn and closes it.
// The context is cancelled on SIGINT and SIGTERM.
func withApp(cmd *cobra.Command, withAI bool, fn func(ctx context.Context, a *application) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, cmd, withAI)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(ctx, a)
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		a.logger.Info("exiting", zap.String("reason", "prompt interrupted"))
		return nil
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
