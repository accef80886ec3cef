package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Export memories as JSON. Filter by owner with -o.",
		Run:   runExport,
	}

	cmd.Flags().StringP("owner", "o", "", "Filter by owner identity")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := s.ExportAll(cmd.Context(), owner)
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(records, "", "  ")
	fmt.Println(string(b))
}
