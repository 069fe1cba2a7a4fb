package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcliao/mimo/internal/catalog"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Run:   runStats,
	}

	cmd.Flags().String("in", "", "Directory holding the catalog")

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	in, _ := cmd.Flags().GetString("in")
	if in == "" {
		exitErr("stats", fmt.Errorf("--in is required"))
	}
	if _, err := os.Stat(filepath.Join(in, catalog.FileName)); err != nil {
		exitErr("stats", fmt.Errorf("no catalog under %s", in))
	}

	cat, err := catalog.Open(in)
	if err != nil {
		exitErr("open catalog", err)
	}
	defer cat.Close()

	stats, err := cat.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(b))
}
