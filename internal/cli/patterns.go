package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List recorded learning patterns",
		Run:   runPatterns,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by pattern type")

	RootCmd.AddCommand(cmd)
}

func runPatterns(cmd *cobra.Command, args []string) {
	patternType, _ := cmd.Flags().GetString("type")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	patterns, err := s.ListPatterns(cmd.Context(), patternType)
	if err != nil {
		exitErr("patterns", err)
	}

	b, _ := json.MarshalIndent(patterns, "", "  ")
	fmt.Println(string(b))
}
