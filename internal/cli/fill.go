package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-nestedforms/pkg/prompt"
)

// NewFillCommand creates the fill command.
func NewFillCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the declared form interactively and save it",
		Long: `Prompt for every parent field and for as many entries of each formset as
you add, then validate and save the result like save does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			form, err := loadDeclaration(ctx, rootOpts)
			if err != nil {
				return err
			}
			collector := prompt.New(prompt.WithDriver(rootOpts.driver), prompt.WithLogger(rootOpts.Logger))
			data, err := collector.Collect(ctx, form)
			if err != nil {
				if errors.Is(err, prompt.ErrAborted) {
					rootOpts.Logger.Infow("fill aborted", "form", form.ID)
					return nil
				}
				return err
			}
			return runSave(cmd, rootOpts, data, !dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the answers without writing them")
	return cmd
}
