package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rcliao/mimo/internal/extract"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memory units",
		Long:  "List every MU under --in. The raw listing includes tombstoned and corrected MUs; --resolved applies tombstone and correction resolution first.",
		Run:   runList,
	}

	cmd.Flags().String("in", "", "Directory of .mimo files")
	cmd.Flags().Bool("resolved", false, "Apply tombstone and correction resolution")

	RootCmd.AddCommand(cmd)
}

type listEntry struct {
	MUID       string `json:"mu_id"`
	GroupID    string `json:"group_id"`
	Order      int    `json:"order"`
	Time       string `json:"time"`
	Source     string `json:"source"`
	Summary    string `json:"summary"`
	Tombstoned bool   `json:"tombstoned,omitempty"`
	Corrected  bool   `json:"corrected,omitempty"`
}

func runList(cmd *cobra.Command, args []string) {
	in, _ := cmd.Flags().GetString("in")
	if in == "" {
		exitErr("list", fmt.Errorf("--in is required"))
	}
	resolved, _ := cmd.Flags().GetBool("resolved")

	items, itemErrs, err := extract.Load(in)
	if err != nil {
		exitErr("load", err)
	}
	for _, e := range itemErrs {
		fmt.Fprintf(os.Stderr, "skipping %s: %s\n", e.Path, e.Msg)
	}

	// Resolve always runs so the raw listing still carries the
	// tombstoned/corrected flags; --resolved additionally filters.
	resolvedView := extract.Resolve(items)
	view := extract.RawView(items)
	if resolved {
		view = resolvedView
	}

	entries := make([]listEntry, 0, len(view))
	for _, it := range view {
		entries = append(entries, listEntry{
			MUID:       it.MU.MUID,
			GroupID:    it.MU.Meta.GroupID,
			Order:      it.MU.Meta.Order,
			Time:       it.MU.Meta.Time,
			Source:     it.MU.Meta.Source,
			Summary:    it.MU.Summary,
			Tombstoned: it.TombstoneRecord || it.Deleted,
			Corrected:  it.Corrected || it.Superseded,
		})
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
