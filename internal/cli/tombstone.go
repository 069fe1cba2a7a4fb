package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/mimo/internal/pack"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tombstone",
		Short: "Append a tombstone for an existing MU",
		Long:  "Write a new MU carrying a tombstone for --target. The target file is never modified; resolution hides it from the normal view.",
		Run:   runTombstone,
	}

	cmd.Flags().String("in", "", "Directory holding the target .mimo file")
	cmd.Flags().String("target", "", "mu_id to tombstone")
	cmd.Flags().String("actor", "", "Who requested the tombstone")
	cmd.Flags().String("reason", "", "Why the MU is tombstoned")
	cmd.Flags().String("scope", "all", "Scope: all, public_exports_only or injection_only")
	cmd.Flags().Bool("retain-raw", false, "Keep the raw evidence in the vault")

	RootCmd.AddCommand(cmd)
}

func runTombstone(cmd *cobra.Command, args []string) {
	in, _ := cmd.Flags().GetString("in")
	target, _ := cmd.Flags().GetString("target")
	actor, _ := cmd.Flags().GetString("actor")
	reason, _ := cmd.Flags().GetString("reason")
	scope, _ := cmd.Flags().GetString("scope")
	retainRaw, _ := cmd.Flags().GetBool("retain-raw")

	if in == "" || target == "" {
		exitErr("tombstone", fmt.Errorf("--in and --target are required"))
	}

	m, err := pack.New(logger()).Tombstone(cmd.Context(), pack.TombstoneParams{
		Dir:        in,
		TargetMUID: target,
		Actor:      actor,
		Reason:     reason,
		Scope:      scope,
		RetainRaw:  retainRaw,
	})
	if err != nil {
		exitErr("tombstone", err)
	}

	out := map[string]string{
		"mu_id":  m.MUID,
		"target": target,
		"scope":  m.Tombstone.Scope,
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
