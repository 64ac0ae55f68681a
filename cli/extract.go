package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/plural-port/archive"
	"github.com/zhubert/plural-port/repo"
)

var extractPath string

var extractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Merge a session archive into the local record store",
	Long: `Unpacks an archive and merges its records into the store. Files already
present are left untouched, so re-running an extraction is safe.

The archive may be referenced by id, file name, or path. If the session's
original workspace directory does not exist on this machine, the repository
is looked up by name under the configured search roots; pass --path to pick
the target directory explicitly.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractPath, "path", "p", "", "Directory to remap the session's workspace to")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := ValidateRequired(DefaultPrerequisites()); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	extractor := archive.NewExtractor(openStore(cfg), newCompressor(), repo.NewResolver(cfg), cfg.ArchiveDir)
	result, err := extractor.Extract(cmd.Context(), args[0], archive.ExtractOptions{RemapTo: extractPath})
	if err != nil {
		return err
	}

	if result.RequiresUserInput {
		fmt.Printf("Session %s was recorded at %s, which does not exist here.\n",
			result.SessionID, result.OriginalPath)
		if len(result.Candidates) > 0 {
			fmt.Println("Matching repositories found:")
			for _, c := range result.Candidates {
				fmt.Printf("  %s\n", c)
			}
		} else {
			fmt.Println("No matching repository was found under the configured search roots.")
		}
		fmt.Println("Re-run with --path <directory> to choose the workspace location.")
		return nil
	}

	fmt.Printf("Merged %q (%d files)\n", result.SessionTitle, result.FileCount)
	if result.PathRemapped {
		fmt.Printf("  workspace remapped: %s -> %s\n", result.OriginalPath, result.NewPath)
	}
	return nil
}
