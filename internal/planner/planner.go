// Package planner turns a raw chat message plus conversation history into a
// normalized query string and clamped retrieval parameters. It is purely
// semantic: no keyword constraints are extracted and any free text is a
// valid query.
package planner

import (
	"fmt"
	"strings"

	"codeberg.org/campusfind/server/internal/llm"
)

const (
	DefaultResults = 5
	MaxResults     = 20

	// how many trailing user turns are scanned for topical context
	contextWindow = 3
)

// Plan is the retrieval request derived from one chat message
type Plan struct {
	Query string // normalized, context-folded query string
	TopK  int    // effective result count, clamped to [1, MaxResults]
}

// leading conversational filler stripped from queries before embedding;
// longest prefixes first so "could you please" wins over "could you"
var fillerPrefixes = []string{
	"could you please",
	"can you please",
	"could you",
	"can you",
	"please",
	"hello",
	"hey",
	"hi",
	"i want to know",
	"i would like",
	"i want",
	"i need",
	"i'm looking for",
	"im looking for",
	"find me",
	"show me",
	"tell me",
}

// topical vocabulary that makes an earlier user turn worth folding into the
// current query as context
var contextTerms = []string{
	"pasta", "pizza", "burger", "coffee", "tea", "food", "eat", "drink",
	"hungry", "thirsty", "study", "quiet", "meeting", "discussion",
}

// Build produces the retrieval plan for a message. maxResults <= 0 selects
// the default; values above the hard cap are clamped down.
func Build(message string, history []llm.Message, maxResults int) Plan {
	return Plan{
		Query: foldContext(Normalize(message), history),
		TopK:  clampResults(maxResults),
	}
}

// Normalize lower-cases, trims, collapses whitespace, and strips leading
// conversational filler. It never rejects: an all-filler message collapses
// back to its trimmed form rather than to nothing.
func Normalize(message string) string {
	query := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	query = strings.TrimRight(query, "?!. ")

	stripped := query

	for changed := true; changed; {
		changed = false

		for _, prefix := range fillerPrefixes {
			rest, ok := strings.CutPrefix(stripped, prefix)
			if !ok || (rest != "" && rest[0] != ' ' && rest[0] != ',') {
				continue
			}

			stripped = strings.TrimLeft(rest, ", ")
			changed = true
		}
	}

	if stripped == "" {
		return query
	}

	return stripped
}

// folds topical mentions from recent user turns into the query so that a
// follow-up like "what about south spine?" still searches in context
func foldContext(query string, history []llm.Message) string {
	var mentions []string

	seen := 0

	for i := len(history) - 1; i >= 0 && seen < contextWindow; i-- {
		turn := history[i]
		if turn.Role != "user" {
			continue
		}

		seen++

		content := strings.ToLower(strings.TrimSpace(turn.Content))
		if content == "" || content == query {
			continue
		}

		for _, term := range contextTerms {
			if strings.Contains(content, term) {
				mentions = append([]string{content}, mentions...)
				break
			}
		}
	}

	if len(mentions) == 0 {
		return query
	}

	return fmt.Sprintf("%s [context: %s]", query, strings.Join(mentions, "; "))
}

func clampResults(maxResults int) int {
	if maxResults <= 0 {
		return DefaultResults
	}

	if maxResults > MaxResults {
		return MaxResults
	}

	return maxResults
}
