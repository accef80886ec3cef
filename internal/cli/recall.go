package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoria-ai/memoria/internal/model"
	"github.com/memoria-ai/memoria/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Retrieve memories, newest first",
		Run:   runRecall,
	}

	cmd.Flags().StringP("owner", "o", "", "Filter by owner identity")
	cmd.Flags().IntP("limit", "l", store.DefaultRecallLimit, "Max results")
	cmd.Flags().Float64("start", 0, "Range start in float seconds since epoch")
	cmd.Flags().Float64("end", 0, "Range end in float seconds since epoch")
	cmd.Flags().Float64("min-importance", 0, "Minimum importance")
	cmd.Flags().StringP("category", "c", "", "Filter by category")
	cmd.Flags().Bool("text", false, "Human-readable output instead of JSON")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")
	minImportance, _ := cmd.Flags().GetFloat64("min-importance")
	category, _ := cmd.Flags().GetString("category")
	asText, _ := cmd.Flags().GetBool("text")

	p := store.RecallParams{
		OwnerID:       owner,
		Limit:         limit,
		MinImportance: minImportance,
		Category:      category,
	}
	if cmd.Flags().Changed("start") {
		v, _ := cmd.Flags().GetFloat64("start")
		p.StartTime = &v
	}
	if cmd.Flags().Changed("end") {
		v, _ := cmd.Flags().GetFloat64("end")
		p.EndTime = &v
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := s.Recall(cmd.Context(), p)
	if err != nil {
		exitErr("recall", err)
	}

	if asText {
		for _, r := range records {
			fmt.Printf("%s  %s\n", model.TimeOf(r.Timestamp).Format("2006-01-02 15:04"), r.Content)
			if r.EmotionalContext != "" {
				fmt.Printf("  Feeling: %s\n", r.EmotionalContext)
			}
			fmt.Printf("  Importance: %g\n", r.Importance)
		}
		return
	}

	b, _ := json.MarshalIndent(records, "", "  ")
	fmt.Println(string(b))
}
