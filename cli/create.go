package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/plural-port/archive"
)

var createCmd = &cobra.Command{
	Use:   "create <session-id>",
	Short: "Build a portable archive from a session in the record store",
	Long: `Collects every record belonging to the session — the session document, its
messages and parts, its diff set, its project, and any snapshot files — and
packs them into a compressed archive named after the date and session title.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if err := ValidateRequired(DefaultPrerequisites()); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	builder := archive.NewBuilder(openStore(cfg), newCompressor(), cfg.ArchiveDir)
	result, err := builder.Build(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Created %s (%d files)\n", result.ArchiveID, result.FileCount)
	fmt.Printf("  %s\n", result.ArchivePath)
	return nil
}
