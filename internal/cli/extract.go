package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/mimo/internal/extract"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract .mimo files back into readable assets",
		Long:  "Reconstruct snapshots from --in into per-group summary, snippet and asset files under --out. With --assets, pointers are resolved against the evidence root and verified against their recorded hash.",
		Run:   runExtract,
	}

	cmd.Flags().String("in", "", "Directory of .mimo files")
	cmd.Flags().String("out", "", "Output directory for extracted assets")
	cmd.Flags().String("assets", "", "Evidence root for pointer resolution")
	cmd.Flags().Bool("include-tombstoned", false, "Extract tombstoned and superseded MUs too")

	RootCmd.AddCommand(cmd)
}

func runExtract(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	assets := flagOr(cmd, "assets", cfg.AssetsDir)
	includeTombstoned, _ := cmd.Flags().GetBool("include-tombstoned")

	if in == "" || out == "" {
		exitErr("extract", fmt.Errorf("--in and --out are required"))
	}

	report, err := extract.New(logger()).Run(cmd.Context(), extract.Params{
		InDir:             in,
		OutDir:            out,
		AssetsDir:         assets,
		IncludeTombstoned: includeTombstoned,
	})
	if err != nil {
		exitErr("extract", err)
	}

	b, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(b))
}
