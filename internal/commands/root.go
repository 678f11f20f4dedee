package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/config"
)

// NewRootCmd builds the blockbridge command tree
func NewRootCmd(version string) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "blockbridge",
		Short: "Turn hybrid Markdown and XML notes into Notion blocks",
		Long: `blockbridge parses notes written in a mix of Markdown and
XML-like tags (<callout>, <toggle>, <ul>/<li>, <code>, ...) into a
tree of Notion blocks, and pushes them to Notion pages.

Commands:
  parse    Print the block tree of a file
  browse   Inspect the blocks of a file interactively
  diff     Compare the blocks two files produce
  push     Send a file to Notion
  watch    Push files in a directory whenever they change
  status   Show pushed files and whether they changed
  check    Verify the Notion token
  search   Find pages by title
  query    List the entries of a database
  install  Run watch as a user service`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				path := configPath
				config.ConfigPath = func() string { return path }
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().Bool("verbose", false, "also log to stderr at debug level")

	// Add subcommands
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(pushCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(installCmd())
	rootCmd.AddCommand(uninstallCmd())
	rootCmd.AddCommand(versionCmd(version))

	return rootCmd
}

// Execute runs the root command with os.Args
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blockbridge v%s\n", version)
		},
	}
}
