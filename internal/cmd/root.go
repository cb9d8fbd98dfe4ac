package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for opensight
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opensight",
		Short: "Batch metadata extraction for ophthalmic imaging archives",
		Long: `Opensight walks directories of ophthalmic imaging files (DICOM plus the
legacy e2e/fda/sdb containers), extracts patient/exam/scan metadata in
parallel and appends the records to a CSV artifact, resuming safely across
interrupted runs.

The retrieve subcommand copies the original files for a list of patient
identifiers using a previously produced artifact as the index.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewExtractCommand())
	cmd.AddCommand(NewRetrieveCommand())

	return cmd
}
