package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pontikos-lab/open-sight/internal/logger"
	"github.com/pontikos-lab/open-sight/internal/retrieve"
)

// NewRetrieveCommand creates the retrieve command
func NewRetrieveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrieve <patient-id-file> <output-directory>",
		Short: "Copy original files for a list of patient IDs",
		Long: `Retrieve reads patient identifiers (one per line) from the given file,
looks each of them up in a previously produced index CSV, and copies the
matching source files into a per-patient, per-date, per-laterality
directory tree under the output directory.

Patient IDs with zero matches are recorded in patient_ids_not_found.csv.

Examples:
  opensight retrieve patients.txt /export/copies
  opensight retrieve -d results.csv --modalities OP,OPT patients.txt /export/copies`,
		Args: cobra.ExactArgs(2),
		RunE: runRetrieve,
	}

	// Add flags
	cmd.Flags().StringP("csv", "d", "open_sight_results.csv", "Index CSV produced by the extract command")
	cmd.Flags().BoolP("overwrite", "o", false, "Overwrite files already present at the destination")
	cmd.Flags().StringSlice("modalities", retrieve.DefaultModalities, "Modality codes to retrieve")
	cmd.Flags().String("manufacturer", retrieve.DefaultManufacturer, "Manufacturer to retrieve")
	cmd.Flags().String("log-level", "info", "Logging verbosity (trace, debug, info, warn, error)")

	return cmd
}

// runRetrieve implements the retrieve command logic
func runRetrieve(cmd *cobra.Command, args []string) error {
	indexCSV, _ := cmd.Flags().GetString("csv")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	modalities, _ := cmd.Flags().GetStringSlice("modalities")
	manufacturer, _ := cmd.Flags().GetString("manufacturer")
	logLevel, _ := cmd.Flags().GetString("log-level")

	log := logger.NewConsoleLogger(os.Stderr, logLevel)

	opts := retrieve.Options{
		IndexCSV:      indexCSV,
		PatientIDFile: args[0],
		OutputDir:     args[1],
		Overwrite:     overwrite,
		Modalities:    modalities,
		Manufacturer:  manufacturer,
	}
	return retrieve.Run(cmd.Context(), opts, log)
}
