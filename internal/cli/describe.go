package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-nestedforms/pkg/render"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the unbound form, its policies and the inputs it accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.Build(ctx, nil)
			if err != nil {
				return err
			}

			var b strings.Builder
			fmt.Fprintln(&b, result.Form.String())
			fmt.Fprintln(&b, "policies:")
			for _, policy := range result.Policies {
				events := make([]string, 0, len(policy.Events()))
				for _, event := range policy.Events() {
					events = append(events, event.String())
				}
				fmt.Fprintf(&b, "  %s extends %s\n", policy, strings.Join(events, ", "))
			}
			fmt.Fprintln(&b, "inputs:")
			for _, name := range result.InputNames() {
				fmt.Fprintf(&b, "  %s\n", name)
			}
			fmt.Fprintln(&b, "management:")
			for _, field := range render.SortedHiddenFields(result.ManagementFields()...) {
				fmt.Fprintf(&b, "  %s=%s\n", field.Name, field.Value)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}
