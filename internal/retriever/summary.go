package retriever

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/campusfind/server/internal/llm"
	"codeberg.org/campusfind/server/internal/logger"
)

const (
	summaryMaxTokens = 500

	// trailing conversation turns included in the summary prompt
	summaryHistoryWindow = 4

	// fallback replies name at most this many facilities
	fallbackListLimit = 3
)

// summarize turns the ranked matches into a conversational reply. Generator
// failures never fail the chat turn: a templated reply built from the same
// matches is returned instead.
func (s *Service) summarize(ctx context.Context, query string, matches []Match, history []llm.Message) string {
	if len(matches) == 0 {
		return noResultsReply(query)
	}

	resp, err := s.generator.GenerateText(ctx, llm.TextGenerationRequest{
		SystemPrompt: summaryPrompt(query, matches, history),
		Messages:     []llm.Message{{Role: "user", Content: query}},
		MaxTokens:    summaryMaxTokens,
	})

	if err != nil {
		logger.Warn("summary generation failed, using fallback reply", "error", err)
		return fallbackReply(matches)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return fallbackReply(matches)
	}

	return text
}

// the generator only sees the facilities that were actually retrieved, so it
// cannot recommend places outside the answer set
func summaryPrompt(query string, matches []Match, history []llm.Message) string {
	var b strings.Builder

	b.WriteString("You are a helpful campus assistant. Answer using only the facilities listed below.\n\n")

	if context := historyContext(history); context != "" {
		b.WriteString("Previous conversation:\n")
		b.WriteString(context)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Current query: %q\n\nMatching facilities:\n", query)

	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s | Type: %s | Building: %s\n", i+1, m.Name, m.Type, m.Building)
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Recommend only from the facilities above, never invent others\n")
	b.WriteString("- Reference earlier topics from the conversation when relevant\n")
	b.WriteString("- Mention the building so the user can find the place\n")
	b.WriteString("- Keep the reply natural and concise\n")

	return b.String()
}

func historyContext(history []llm.Message) string {
	start := max(len(history)-summaryHistoryWindow, 0)

	var lines []string

	for _, turn := range history[start:] {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}

		role := "Assistant"
		if turn.Role == "user" {
			role = "Human"
		}

		lines = append(lines, fmt.Sprintf("%s: %s", role, content))
	}

	return strings.Join(lines, "\n")
}

func fallbackReply(matches []Match) string {
	lines := make([]string, 0, fallbackListLimit)

	for _, m := range matches[:min(len(matches), fallbackListLimit)] {
		lines = append(lines, fmt.Sprintf("- %s (%s)", m.Name, m.Building))
	}

	return "Here are some campus facilities I found:\n\n" + strings.Join(lines, "\n")
}

func noResultsReply(query string) string {
	suggestions := []string{
		"ask about food places near a specific building",
		"search for study areas in a particular school",
		"look for coffee shops or restaurants",
		"name a building like North Spine or South Spine",
	}

	return fmt.Sprintf(
		"I couldn't find facilities matching %q. You could try to:\n- %s",
		query, strings.Join(suggestions, "\n- "))
}
