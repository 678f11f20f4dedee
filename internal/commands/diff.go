package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/diff"
	"github.com/gerunddev/blockbridge/internal/styles"
)

func diffCmd() *cobra.Command {
	var (
		format string
		plain  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare the blocks two files produce",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := diff.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			unified, err := diff.Files(args[0], args[1], a.parser, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if unified == "" {
				fmt.Fprintln(out, styles.SuccessStyle.Render("✓ No differences"))
				return nil
			}
			if useTUI(cmd, plain) {
				fmt.Fprint(out, diff.Render(unified))
				return nil
			}
			fmt.Fprint(out, unified)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "outline", "what to compare: outline or json")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the raw unified diff")

	return cmd
}
