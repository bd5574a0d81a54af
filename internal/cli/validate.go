package cli

import (
	"fmt"
	"os"

	"github.com/mvp-joe/featurescan/internal/metadata"
	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <metadata.json>",
	Short: "Validate a generated metadata document",
	Long: `Validate checks a metadata document against the metadata schema and reports
every violation. The schema_version must be a major.minor.patch version no
newer than ` + metadata.SchemaVersion + `; newer patch releases are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := metadata.ValidateElements(data); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", args[0])
	return nil
}
