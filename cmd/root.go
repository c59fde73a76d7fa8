package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the autoreply application
var rootCmd = &cobra.Command{
	Use:   "autoreply",
	Short: "Automatically replies to incoming Gmail messages",
	Long: `autoreply is a single-account Gmail bot. It polls your mailbox for
messages matching a query (unread by default), generates a short reply
with a language model (or a keyword template when no model is
configured), sends it threaded to the original message, and marks the
message handled so it is only answered once.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "autoreply version %s\n" .Version}}`)

	// If no subcommand is provided, run the bot by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
