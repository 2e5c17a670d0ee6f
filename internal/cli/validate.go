package cli

import (
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [submission]",
		Short: "Validate a submission against the declaration",
		Long: `Bind a URL-encoded submission (read from the given file, or stdin) to the
declared form and its formsets, then print the form description and every
error keyed by input name. Nothing is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := readSubmission(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			s, err := openSession(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.Build(ctx, data)
			if err != nil {
				return err
			}
			report := newReport(result)
			if err := writeReport(cmd.OutOrStdout(), rootOpts.Format, report); err != nil {
				return err
			}
			if !report.Valid {
				return ErrInvalidSubmission
			}
			return nil
		},
	}
}
