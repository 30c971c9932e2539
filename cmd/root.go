package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coursechat",
	Short: "Retrieval-augmented chatbot over course materials",
	Long: `coursechat ingests plain-text course documents into a Weaviate vector
store and answers questions about them through a tool-using chat model.

Use "serve" to run the HTTP API, "ingest" to load course documents, and
"courses" to inspect the catalog.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(settingDefaultConfig)
}
