// Package main provides the entry point for the wikirun CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wikirun.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikirun",
		Short: "Semantic Wikipedia race solver",
		Long: `Wikirun navigates from one Wikipedia article to another using only
hyperlinks, the way human players race. At each page it extracts the
links, embeds the text around each one, and greedily follows the link
most similar to the target article.

An embedding API endpoint (OpenAI-compatible /v1/embeddings) must be
reachable; a local inference server works fine.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
