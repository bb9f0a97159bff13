// Package main provides the entry point for the contratos CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the contratos CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contratos",
		Short: "Export Portal da Transparência contracts to CSV",
		Long: `contratos pages through the Portal da Transparência /contratos endpoint
for one organization, flattens the nested record structure into a flat
table, formats the currency columns in Brazilian notation, and writes the
result to a CSV file (and optionally a SQLite database).

Requests are throttled to the API's published requests-per-minute ceilings,
which vary by time of day.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewFetchCmd())
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
