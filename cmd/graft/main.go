package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagLanguage string
	flagRules    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "graft",
	Short:         "Pattern-driven syntax-tree rewriting",
	Long:          "Graft matches declarative source patterns against Go and Java files and runs rewrite rules over the matches, as a dry run or in place.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLanguage, "language", "go", "source language: go|java")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "directory of .risor rule scripts")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rulesCmd)
}
