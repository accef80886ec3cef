package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "relationship <owner>",
		Short: "Show the relationship record for an owner",
		Args:  cobra.ExactArgs(1),
		Run:   runRelationship,
	}

	cmd.Flags().String("notes", "", "Overwrite personal notes (touches the relationship)")

	RootCmd.AddCommand(cmd)
}

func runRelationship(cmd *cobra.Command, args []string) {
	owner := args[0]

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if cmd.Flags().Changed("notes") {
		notes, _ := cmd.Flags().GetString("notes")
		rel, err := s.TouchRelationship(cmd.Context(), owner, notes)
		if err != nil {
			exitErr("touch relationship", err)
		}
		b, _ := json.MarshalIndent(rel, "", "  ")
		fmt.Println(string(b))
		return
	}

	rel, err := s.GetRelationship(cmd.Context(), owner)
	if err != nil {
		exitErr("relationship", err)
	}

	b, _ := json.MarshalIndent(rel, "", "  ")
	fmt.Println(string(b))
}
