package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/utils"
)

func init() {
	rootCmd.AddCommand(newDocumentsCmd(domain.KindCandidate, "candidates", "Manage candidate CVs"))
	rootCmd.AddCommand(newDocumentsCmd(domain.KindJob, "jobs", "Manage job descriptions"))
}

func newDocumentsCmd(kind domain.Kind, use, short string) *cobra.Command {
	root := &cobra.Command{
		Use:   use,
		Short: short,
	}

	add := &cobra.Command{
		Use:   "add [file...]",
		Short: "Add documents from text files, stdin (-) or --content",
		RunE: func(cmd *cobra.Command, args []string) error {
			return addDocuments(cmd, kind, args)
		},
	}
	add.Flags().String("name", "", "display name (defaults to the file name)")
	add.Flags().String("content", "", "inline document text")
	add.Flags().String("notes", "", "recruiter notes sent along with the document")
	add.Flags().Bool("enrich", false, "extract structured data with the AI provider after adding")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listDocuments(cmd, kind)
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *application) error {
				doc, err := a.state.GetDocument(kind, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), doc)
			})
		},
	}

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the name, text or notes of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDocument(cmd, kind, args[0])
		},
	}
	edit.Flags().String("name", "", "new display name")
	edit.Flags().String("content", "", "new document text")
	edit.Flags().String("file", "", "read the new document text from a file")
	edit.Flags().String("notes", "", "new recruiter notes")

	enrich := &cobra.Command{
		Use:   "enrich <id>",
		Short: "Extract structured data from a document with the AI provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *application) error {
				doc, err := a.state.Enrich(ctx, kind, args[0], a.enricher)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), doc.Structured)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document and every result that references it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteDocument(cmd, kind, args[0])
		},
	}
	del.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	root.AddCommand(add, list, show, edit, enrich, del)
	return root
}

func addDocuments(cmd *cobra.Command, kind domain.Kind, paths []string) error {
	name, _ := cmd.Flags().GetString("name")
	content, _ := cmd.Flags().GetString("content")
	notes, _ := cmd.Flags().GetString("notes")
	enrich, _ := cmd.Flags().GetBool("enrich")

	if content == "" && len(paths) == 0 {
		return errors.New("pass one or more files or --content")
	}
	if name != "" && len(paths) > 1 {
		return errors.New("--name can only be used with a single document")
	}

	return withApp(cmd, enrich, func(ctx context.Context, a *application) error {
		var docs []*domain.Document

		if content != "" {
			doc, err := domain.NewDocument(kind, name, content)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}

		for _, path := range paths {
			doc, err := documentFromFile(cmd.InOrStdin(), kind, path, name)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}

		for _, doc := range docs {
			doc.Notes = strings.TrimSpace(notes)
			stored, err := a.state.AddDocument(ctx, doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", stored.ID, stored.Name)

			if !enrich {
				continue
			}
			if _, err := a.state.Enrich(ctx, kind, stored.ID, a.enricher); err != nil {
				// The document is stored either way.
				a.logger.Warn("enrichment failed", append(logger.DocumentFields(kind.String(), stored.ID), zap.Error(err))...)
			}
		}
		return nil
	})
}

// documentFromFile reads a plain text document. "-" reads stdin.
func documentFromFile(stdin io.Reader, kind domain.Kind, path, name string) (*domain.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if name == "" && path != "-" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	doc, err := domain.NewDocument(kind, name, string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if path != "-" {
		doc.FileName = filepath.Base(path)
		doc.MimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	return doc, nil
}

func listDocuments(cmd *cobra.Command, kind domain.Kind) error {
	return withApp(cmd, false, func(_ context.Context, a *application) error {
		docs, err := a.state.Documents(kind)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED\tSTRUCTURED\tNOTES")
		for _, doc := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
				doc.ID, doc.Name, doc.CreatedAt.Format("2006-01-02 15:04"), doc.Structured != nil, utils.TruncateForLog(strings.Join(strings.Fields(doc.Notes), " "), 40))
		}
		return w.Flush()
	})
}

func editDocument(cmd *cobra.Command, kind domain.Kind, id string) error {
	var patch domain.DocumentPatch

	if cmd.Flags().Changed("name") {
		v, _ := cmd.Flags().GetString("name")
		patch.Name = &v
	}
	if cmd.Flags().Changed("notes") {
		v, _ := cmd.Flags().GetString("notes")
		patch.Notes = &v
	}
	if cmd.Flags().Changed("content") {
		v, _ := cmd.Flags().GetString("content")
		patch.Content = &v
	}
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		if patch.Content != nil {
			return errors.New("--content and --file are mutually exclusive")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		content := string(data)
		fileName := filepath.Base(path)
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		patch.Content, patch.FileName, patch.MimeType = &content, &fileName, &mimeType
	}
	if patch.Empty() {
		return errors.New("nothing to change")
	}

	return withApp(cmd, false, func(ctx context.Context, a *application) error {
		doc, err := a.state.UpdateDocument(ctx, kind, id, patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", doc.ID, doc.Name)
		return nil
	})
}

func deleteDocument(cmd *cobra.Command, kind domain.Kind, id string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	return withApp(cmd, false, func(ctx context.Context, a *application) error {
		doc, err := a.state.GetDocument(kind, id)
		if err != nil {
			return err
		}

		if !yes {
			ok, err := confirm(fmt.Sprintf("Delete %s %q and its results?", kind, doc.Name))
			if err != nil || !ok {
				return err
			}
		}

		removed, err := a.state.DeleteDocument(ctx, kind, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s with %d result(s)\n", kind, id, removed)
		return nil
	})
}

// confirm asks a yes/no question the way the interactive prompts do.
func confirm(label string) (bool, error) {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}
	_, answer, err := prompt.Run()
	if err != nil {
		return false, err
	}
	return answer == PromptYes, nil
}
