package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/plural-port/archive"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archives on disk, newest first",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	infos, err := archive.List(cfg.ArchiveDir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No archives found.")
		return nil
	}

	for _, info := range infos {
		fmt.Printf("%s  %8s  %s\n",
			info.ModTime.Format("2006-01-02 15:04"),
			formatSize(info.Size),
			info.ID)
	}
	return nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
