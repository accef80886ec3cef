package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoria-ai/memoria/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "learn <pattern-type>",
		Short: "Record a learning pattern",
		Args:  cobra.ExactArgs(1),
		Run:   runLearn,
	}

	cmd.Flags().String("data", "", "Opaque pattern data")
	cmd.Flags().Float64("success-rate", 0.5, "Observed success rate")

	RootCmd.AddCommand(cmd)
}

func runLearn(cmd *cobra.Command, args []string) {
	data, _ := cmd.Flags().GetString("data")
	rate, _ := cmd.Flags().GetFloat64("success-rate")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	pattern, err := s.RecordPattern(cmd.Context(), store.PatternParams{
		PatternType: args[0],
		PatternData: data,
		SuccessRate: rate,
	})
	if err != nil {
		exitErr("learn", err)
	}

	b, _ := json.Marshal(pattern)
	fmt.Println(string(b))
}
