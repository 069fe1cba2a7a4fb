package cli

import (
	"fmt"
	"os"

	"github.com/rcliao/mimo/internal/mu"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate .mimo files",
		Long:  "Validate every .mimo file under --in against its declared schema version and the embedded JSON Schema contract. Exits 2 when any file fails.",
		Run:   runValidate,
	}

	cmd.Flags().String("in", "", "Input .mimo file or directory")

	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	in, _ := cmd.Flags().GetString("in")
	if in == "" {
		exitErr("validate", fmt.Errorf("--in is required"))
	}

	files, err := mu.ListFiles(in)
	if err != nil {
		exitErr("list files", err)
	}
	if len(files) == 0 {
		exitErr("validate", fmt.Errorf("no %s files under %s", mu.FileExt, in))
	}

	failed := 0
	for _, f := range files {
		doc, err := readDoc(f)
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", f, err)
			continue
		}
		violations, err := mu.Validate(doc, f, "")
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", f, err)
			continue
		}
		if len(violations) > 0 {
			failed++
			fmt.Printf("FAIL %s\n", f)
			for _, v := range violations {
				fmt.Printf("  %s: %s\n", v.Code, v.Msg)
			}
			continue
		}
		fmt.Printf("OK   %s\n", f)
	}

	fmt.Printf("%d files, %d failed\n", len(files), failed)
	if failed > 0 {
		os.Exit(2)
	}
}

func readDoc(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return mu.ParseDoc(data)
}
