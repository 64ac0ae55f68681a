package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that required external tools are available",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	prereqs := DefaultPrerequisites()
	results := CheckAll(prereqs)
	fmt.Print(FormatCheckResults(results))

	for _, r := range results {
		if r.Prerequisite.Required && !r.Found {
			return fmt.Errorf("missing required tools")
		}
	}
	return nil
}
