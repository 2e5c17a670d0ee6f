package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "save [submission]",
		Short: "Validate a submission and save the parent with its formsets",
		Long: `Validate a URL-encoded submission like validate does and, when it is valid,
save the parent record and every nested record in one transaction. A failure
in any formset rolls the parent back.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSubmission(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runSave(cmd, rootOpts, data, !dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and prepare records without writing them")
	return cmd
}

func runSave(cmd *cobra.Command, opts *RootOptions, data url.Values, commit bool) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.Build(ctx, data)
	if err != nil {
		return err
	}
	report := newReport(result)
	if !report.Valid {
		if err := writeReport(cmd.OutOrStdout(), opts.Format, report); err != nil {
			return err
		}
		return ErrInvalidSubmission
	}

	rec, err := result.Form.Save(ctx, commit)
	if err != nil {
		return err
	}
	report.recordSaved(result.Model.Table, rec, commit)
	opts.Logger.Infow("submission saved", "form", result.Model.ID, "table", result.Model.Table, "id", rec.ID, "commit", commit)
	return writeReport(cmd.OutOrStdout(), opts.Format, report)
}
