package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammadpnp/member-import/internal/application/wizard"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/infrastructure/file"
	"github.com/mohammadpnp/member-import/internal/interfaces/http/client"
)

var errImportAborted = errors.New("import aborted")

type importOptions struct {
	file        string
	clubID      string
	initiatorID string
	baseURL     string
	yes         bool
}

type fileReader interface {
	Read(ctx context.Context, path string) (string, []byte, error)
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upload, preview and commit a member spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if opts.baseURL == "" {
				opts.baseURL = cfg.Import.APIURL
			}

			backend, err := client.NewBackend(opts.baseURL, nil)
			if err != nil {
				return err
			}

			session := wizard.NewSession(backend, opts.clubID, opts.initiatorID, wizard.Config{
				CallTimeout:     cfg.Import.CallTimeout,
				MaxRetries:      cfg.Import.MaxRetries,
				InitialInterval: cfg.Import.InitialInterval,
				MaxInterval:     cfg.Import.MaxInterval,
			})
			source := file.NewLocalSource(".", cfg.Import.MaxFileBytes)

			return runImport(cmd.Context(), session, source, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "path to a .csv or .xlsx member file")
	cmd.Flags().StringVar(&opts.clubID, "club", "", "club id")
	cmd.Flags().StringVar(&opts.initiatorID, "initiator", "", "id of the user running the import")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "import API url (default MEMBER_IMPORT_API_URL)")
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "commit without asking and exit after the report")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("club")
	_ = cmd.MarkFlagRequired("initiator")
	return cmd
}

// runImport walks the session through one or more imports until the user
// is done.
func runImport(ctx context.Context, session *wizard.Session, source fileReader, opts *importOptions, in io.Reader, out io.Writer) error {
	p := &prompter{scanner: bufio.NewScanner(in), out: out, yes: opts.yes}
	path := opts.file

	for {
		if err := importOnce(ctx, session, source, path, p, out); err != nil {
			if errors.Is(err, errImportAborted) {
				fmt.Fprintln(out, "Import cancelled.")
				return nil
			}
			fmt.Fprintln(out, wizard.UserMessage(err))
			return err
		}

		action := wizard.ActionDone
		if !p.yes && p.confirm("Import another file?") {
			action = wizard.ActionRestart
		}
		if _, err := session.Finish(action); err != nil {
			return err
		}
		if action == wizard.ActionDone {
			return nil
		}

		path = p.ask("Path to the next file:")
		if path == "" {
			return nil
		}
	}
}

func importOnce(ctx context.Context, session *wizard.Session, source fileReader, path string, p *prompter, out io.Writer) error {
	fileName, content, err := source.Read(ctx, path)
	if err != nil {
		return err
	}

	summary, err := session.Upload(ctx, fileName, content)
	if err != nil {
		return err
	}
	printSummary(out, fileName, summary)

	page, err := session.Preview(ctx)
	if err != nil {
		return err
	}
	if err := wizard.RenderPreview(out, page); err != nil {
		return err
	}

	if !session.CanConfirm() {
		return wizard.ErrNoValidRows
	}
	if !p.confirm(fmt.Sprintf("Import %d valid members?", summary.ValidRows)) {
		_ = session.Back()
		return errImportAborted
	}
	if err := session.Confirm(); err != nil {
		return err
	}

	result, err := commitWithRetry(ctx, session, p, out)
	if err != nil {
		return err
	}
	return wizard.RenderReport(out, wizard.NewReport(result))
}

// commitWithRetry asks before every retry; a commit is never repeated
// without the user's say so.
func commitWithRetry(ctx context.Context, session *wizard.Session, p *prompter, out io.Writer) (domain.FinalImportResult, error) {
	for {
		result, err := session.Commit(ctx)
		if err == nil {
			return result, nil
		}
		// A commit still in progress is worth another try: once it finishes
		// the session picks up its stored result.
		if errors.Is(err, domain.ErrAlreadyCommitted) || errors.Is(err, domain.ErrImportNotFound) || p.yes {
			return domain.FinalImportResult{}, err
		}

		fmt.Fprintln(out, wizard.UserMessage(err))
		if !p.confirm("Retry the commit?") {
			return domain.FinalImportResult{}, err
		}
	}
}

func printSummary(out io.Writer, fileName string, summary domain.ValidationSummary) {
	fmt.Fprintf(out, "%s: %d rows, %d valid, %d invalid\n",
		fileName, summary.TotalRows, summary.ValidRows, summary.InvalidRows)
	for _, issue := range summary.Errors {
		fmt.Fprintf(out, "  Row %d %s: %s\n", issue.Row, issue.Field, issue.Message)
	}
}

type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	yes     bool
}

func (p *prompter) confirm(question string) bool {
	if p.yes {
		return true
	}
	answer := strings.ToLower(p.ask(question + " [y/N]"))
	return answer == "y" || answer == "yes"
}

func (p *prompter) ask(question string) string {
	fmt.Fprint(p.out, question+" ")
	if !p.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(p.scanner.Text())
}
