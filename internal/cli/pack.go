package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/mimo/internal/pack"
	"github.com/rcliao/mimo/internal/split"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack source files into .mimo memory units",
		Long:  "Pack every supported file under --in into one .mimo memory unit per split slice, recording each unit in the output catalog for idempotent reruns.",
		Run:   runPack,
	}

	cmd.Flags().String("in", "", "Input directory")
	cmd.Flags().String("out", "", "Output directory for .mimo files")
	cmd.Flags().String("source", "", "Source label: file, chat, web or pdf")
	cmd.Flags().String("split", "", "Split strategy, e.g. line_window:400")
	cmd.Flags().String("vault-id", "", "Vault referenced by raw pointer URIs")
	cmd.Flags().String("dedup", "", "Duplicate handling: skip, alias or versioned")
	cmd.Flags().StringP("tags", "t", "", "Tags for every MU (comma-separated)")

	RootCmd.AddCommand(cmd)
}

func runPack(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	source := flagOr(cmd, "source", cfg.Source)
	splitSpec := flagOr(cmd, "split", cfg.Split)
	vaultID := flagOr(cmd, "vault-id", cfg.VaultID)
	dedup := flagOr(cmd, "dedup", cfg.Dedup)
	tagsStr, _ := cmd.Flags().GetString("tags")

	if in == "" || out == "" {
		exitErr("pack", fmt.Errorf("--in and --out are required"))
	}

	spec, err := split.Parse(splitSpec)
	if err != nil {
		exitErr("parse split", err)
	}

	tags := cfg.Tags
	if tagsStr != "" {
		tags = nil
		for _, t := range strings.Split(tagsStr, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}

	report, err := pack.New(logger()).Run(cmd.Context(), pack.Params{
		InputDir: in,
		OutDir:   out,
		Source:   source,
		Split:    spec,
		VaultID:  vaultID,
		Dedup:    dedup,
		Tags:     tags,
	})
	if err != nil {
		exitErr("pack", err)
	}

	b, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(b))
}

// flagOr returns the flag value when set, the config fallback otherwise.
func flagOr(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}
