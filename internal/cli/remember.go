package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memoria-ai/memoria/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Store a memory",
		Long:  "Store a memory for an owner. Content can be a positional arg or piped via stdin. Duplicate (owner, content) submissions are absorbed silently.",
		Run:   runRemember,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner identity (required)")
	cmd.Flags().Float64P("importance", "i", store.DefaultImportance, "Importance in [0,1]")
	cmd.Flags().StringP("emotion", "e", "", "Emotional context tags (comma+space separated)")
	cmd.Flags().StringP("category", "c", "", "Category label")
	cmd.Flags().String("meta", "", "JSON metadata object")
	cmd.Flags().Float64("at", 0, "Timestamp in float seconds since epoch (default: now)")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	importance, _ := cmd.Flags().GetFloat64("importance")
	emotion, _ := cmd.Flags().GetString("emotion")
	category, _ := cmd.Flags().GetString("category")
	metaStr, _ := cmd.Flags().GetString("meta")

	var at *float64
	if cmd.Flags().Changed("at") {
		v, _ := cmd.Flags().GetFloat64("at")
		at = &v
	}

	// Get content: positional arg first, then check stdin
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}

	if strings.TrimSpace(content) == "" {
		exitErr("remember", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	var metadata map[string]any
	if metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &metadata); err != nil {
			exitErr("parse meta", err)
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ts, err := s.Remember(cmd.Context(), store.RememberParams{
		OwnerID:          owner,
		Content:          strings.TrimSpace(content),
		Importance:       &importance,
		EmotionalContext: emotion,
		Category:         category,
		Metadata:         metadata,
		Timestamp:        at,
	})
	if err != nil {
		exitErr("remember", err)
	}

	fmt.Printf(`{"status":"success","timestamp":%g}`+"\n", ts)
}
