package retriever

import (
	"sort"

	"codeberg.org/campusfind/server/internal/facilities"
	"codeberg.org/campusfind/server/internal/vectorindex"
)

// rank collapses the candidate set into the final answer: one entry per
// facility keeping its best score, ordered by score descending with ties
// broken by facility id ascending, truncated to topK.
func rank(candidates []vectorindex.SearchResult, topK int) []Match {
	best := make(map[int64]vectorindex.SearchResult, len(candidates))

	for _, cand := range candidates {
		if prev, ok := best[cand.FacilityID]; ok && prev.Score >= cand.Score {
			continue
		}

		best[cand.FacilityID] = cand
	}

	ranked := make([]vectorindex.SearchResult, 0, len(best))
	for _, cand := range best {
		ranked = append(ranked, cand)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}

		return ranked[i].FacilityID < ranked[j].FacilityID
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	matches := make([]Match, 0, len(ranked))

	for _, cand := range ranked {
		matches = append(matches, Match{
			FacilityID: cand.FacilityID,
			Name:       cand.Facility.Name,
			Type:       facilities.DisplayType(cand.Facility.Type),
			Building:   cand.Facility.Building,
			Score:      cand.Score,
		})
	}

	return matches
}
