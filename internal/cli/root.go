// Package cli implements the mimo CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rcliao/mimo/internal/config"
	"github.com/rcliao/mimo/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath  string
	verboseFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "mimo",
	Short: "Pack sources into .mimo memory units and back",
	Long:  "mimo packs source files into append-only .mimo memory units with canonical hashing, validates them against the v1.1 contract, and extracts them back into readable assets.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Run config file (YAML)")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")
	RootCmd.SetGlobalNormalizationFunc(normalizeAliases)
}

// normalizeAliases accepts --input/--output as spellings of --in/--out.
func normalizeAliases(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "input":
		name = "in"
	case "output":
		name = "out"
	}
	return pflag.NormalizedName(name)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

func logger() *slog.Logger {
	return logging.New(verboseFlag)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
