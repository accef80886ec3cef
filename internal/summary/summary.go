// Package summary aggregates time-ordered memory batches into conversation
// statistics and a rendered transcript.
package summary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/memoria-ai/memoria/internal/model"
)

// annotationThreshold marks records important enough to carry an emotion and
// importance annotation in the transcript.
const annotationThreshold = 0.7

// emotionSeparator splits a record's emotional context into individual tags.
const emotionSeparator = ", "

// Stats holds the aggregate numbers for a conversation window.
type Stats struct {
	HumanMessages        int            `json:"human_messages"`
	AssistantMessages    int            `json:"assistant_messages"`
	AvgImportance        float64        `json:"avg_importance"`
	EmotionalContexts    map[string]int `json:"emotional_contexts"`
	ConversationDuration float64        `json:"conversation_duration"`
}

// Summary carries the statistics plus the rendered transcript for a batch of
// memories.
type Summary struct {
	OwnerID       string  `json:"owner_id,omitempty"`
	Start         float64 `json:"start,omitempty"`
	End           float64 `json:"end,omitempty"`
	TotalMessages int     `json:"total_messages"`
	Statistics    Stats   `json:"statistics"`
	Transcript    string  `json:"transcript"`
}

// Summarize aggregates records into a Summary. Input order does not matter:
// records are re-sorted ascending by timestamp so the transcript always reads
// chronologically. Output is byte-stable for identical input.
func Summarize(records []model.MemoryRecord) *Summary {
	ordered := make([]model.MemoryRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	stats := Stats{EmotionalContexts: map[string]int{}}
	var importanceSum float64

	for _, r := range ordered {
		role, _ := model.ClassifyRole(r.Content)
		switch role {
		case model.RoleHuman:
			stats.HumanMessages++
		case model.RoleAssistant:
			stats.AssistantMessages++
		}

		importanceSum += r.Importance

		for _, tag := range splitEmotions(r.EmotionalContext) {
			stats.EmotionalContexts[tag]++
		}
	}

	if len(ordered) > 0 {
		stats.AvgImportance = importanceSum / float64(len(ordered))
	}
	if len(ordered) > 1 {
		first := ordered[0].Timestamp
		last := ordered[len(ordered)-1].Timestamp
		stats.ConversationDuration = (last - first) / 3600
	}

	return &Summary{
		TotalMessages: len(ordered),
		Statistics:    stats,
		Transcript:    renderTranscript(ordered),
	}
}

func splitEmotions(context string) []string {
	if context == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(context, emotionSeparator) {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// renderTranscript produces one line per record with local wall-clock time,
// role label, and cleaned content. Records above the annotation threshold get
// an extra line listing their emotion tags and importance.
func renderTranscript(ordered []model.MemoryRecord) string {
	var b strings.Builder
	for _, r := range ordered {
		role, content := model.ClassifyRole(r.Content)
		fmt.Fprintf(&b, "[%s] %s: %s\n",
			model.TimeOf(r.Timestamp).Format("15:04:05"), role, content)

		if r.Importance > annotationThreshold {
			if r.EmotionalContext != "" {
				fmt.Fprintf(&b, "[Emotion: %s] ", r.EmotionalContext)
			}
			fmt.Fprintf(&b, "[Importance: %.2f]\n", r.Importance)
		}
	}
	return b.String()
}

// Report renders the full human-readable conversation history document:
// header, statistics, emotion distribution, and the transcript. generatedAt
// is passed in so output stays reproducible.
func (s *Summary) Report(generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== CONVERSATION HISTORY WITH %s ===\n", strings.ToUpper(s.OwnerID))
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Period: %s to %s\n",
		model.TimeOf(s.Start).Format("2006-01-02 15:04"),
		model.TimeOf(s.End).Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total Messages: %d\n", s.TotalMessages)

	b.WriteString("\n=== CONVERSATION STATISTICS ===\n")
	fmt.Fprintf(&b, "Human Messages: %d\n", s.Statistics.HumanMessages)
	fmt.Fprintf(&b, "Assistant Messages: %d\n", s.Statistics.AssistantMessages)
	fmt.Fprintf(&b, "Average Importance: %.2f\n", s.Statistics.AvgImportance)
	fmt.Fprintf(&b, "Conversation Duration: %.2f hours\n", s.Statistics.ConversationDuration)

	b.WriteString("\n=== EMOTIONAL CONTEXT DISTRIBUTION ===\n")
	for _, e := range sortedEmotions(s.Statistics.EmotionalContexts) {
		fmt.Fprintf(&b, "%s: %d occurrences\n", e.tag, e.count)
	}

	b.WriteString("\n=== CONVERSATION LOG ===\n")
	b.WriteString(s.Transcript)

	return b.String()
}

type emotionCount struct {
	tag   string
	count int
}

// sortedEmotions orders by count descending, then tag, so rendering is stable.
func sortedEmotions(m map[string]int) []emotionCount {
	out := make([]emotionCount, 0, len(m))
	for tag, count := range m {
		out = append(out, emotionCount{tag, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].tag < out[j].tag
	})
	return out
}
