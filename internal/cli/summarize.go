package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/memoria-ai/memoria/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "summarize <owner>",
		Short: "Summarize a conversation window",
		Long:  "Aggregate an owner's memories over a time window into statistics and a chronological transcript.",
		Args:  cobra.ExactArgs(1),
		Run:   runSummarize,
	}

	cmd.Flags().Float64("hours", 24, "Window length ending now")
	cmd.Flags().Bool("report", false, "Render the full text report instead of JSON")
	cmd.Flags().String("out", "", "Write output to a file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runSummarize(cmd *cobra.Command, args []string) {
	owner := args[0]
	hours, _ := cmd.Flags().GetFloat64("hours")
	asReport, _ := cmd.Flags().GetBool("report")
	outPath, _ := cmd.Flags().GetString("out")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	now := time.Now()
	end := model.TimestampOf(now)
	start := end - hours*3600

	sum, err := s.SummarizeConversation(cmd.Context(), owner, &start, &end)
	if err != nil {
		exitErr("summarize", err)
	}

	var out string
	if asReport {
		out = sum.Report(now)
	} else {
		b, _ := json.MarshalIndent(sum, "", "  ")
		out = string(b) + "\n"
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
			exitErr("write output", err)
		}
		fmt.Printf("summary written to %s\n", outPath)
		return
	}

	fmt.Print(out)
}
