package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	jsonOutput bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "truecost",
	Short: "Estimate what a product costs to make and what it sells for",
	Long: `truecost sends a product photo to a vision model, normalizes the estimate
and prints the bill of materials range, the market price range and the implied markup.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image-file|url]",
	Short: "Analyze a product photo",
	Long: `Analyzes a local image file or an image URL.

Without --server the model is called directly using the same environment
variables as the API server. With --server the request goes through a running
truecost API.

Example:
  truecost analyze kettle.jpg
  truecost analyze https://example.com/kettle.jpg --server http://localhost:8080 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize [result.json]",
	Short: "Normalize a stored analysis result and print its summary",
	Long:  "Reads a JSON analysis result from a file, or stdin when no file is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNormalize,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")
	analyzeCmd.Flags().StringVar(&serverURL, "server", "", "Base URL of a truecost API server")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 90*time.Second, "Overall timeout")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(normalizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
