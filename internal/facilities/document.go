package facilities

import (
	"fmt"
	"strings"
)

// attribute phrases appended to the search document, in a fixed order so the
// same facility always produces the same text
var attributePhrases = []struct {
	key    string
	phrase string
}{
	{"aircon", "air conditioning available"},
	{"quiet_zone", "quiet study environment"},
	{"outlet", "power outlets for charging devices"},
	{"monitor", "computer monitors and screens"},
	{"whiteboard", "whiteboard for presentations"},
	{"projector", "projector for presentations"},
	{"halal", "halal food options"},
	{"vegetarian", "vegetarian food options"},
	{"dine_in", "dine-in seating available"},
	{"takeaway", "takeaway options"},
}

// context sentences keyed by facility type; these give the encoder vocabulary
// a plain type tag would miss (e.g. "study_area" vs "homework")
var typeContext = map[string]string{
	"study_area":      "Perfect for studying, reading, research, homework, and academic work",
	"discussion_area": "Ideal for group discussions, meetings, team work, and presentations",
	"food":            "Food and dining options, restaurant, meals, eating",
	"beverage":        "Drinks, coffee, tea, beverages, refreshments",
}

// SearchDocument renders a facility as the rich text document that gets
// embedded into the vector index
func SearchDocument(f Facility) string {
	parts := []string{
		fmt.Sprintf("Facility Name: %s", f.Name),
		fmt.Sprintf("Type: %s", DisplayType(f.Type)),
		fmt.Sprintf("Location: %s", f.Building),
	}

	if f.Floor != "" {
		parts = append(parts, fmt.Sprintf("Floor: %s", f.Floor))
	}

	if f.UnitNumber != "" {
		parts = append(parts, fmt.Sprintf("Unit: %s", f.UnitNumber))
	}

	var features []string

	for _, attr := range attributePhrases {
		if f.Attrs[attr.key] {
			features = append(features, attr.phrase)
		}
	}

	if len(features) > 0 {
		parts = append(parts, fmt.Sprintf("Features: %s", strings.Join(features, ", ")))
	}

	if len(f.OpenDays) > 0 && f.OpenTime != "" && f.CloseTime != "" {
		parts = append(parts, fmt.Sprintf("Open %s from %s to %s",
			strings.Join(f.OpenDays, ", "), f.OpenTime, f.CloseTime))
	}

	normalized := strings.ReplaceAll(strings.ToLower(f.Type), " ", "_")
	if context, ok := typeContext[normalized]; ok {
		parts = append(parts, context)
	}

	return strings.Join(parts, ". ")
}
