package chat

// one turn of prior conversation, oldest first
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type Request struct {
	Message             string    `json:"message"`
	ConversationHistory []Message `json:"conversation_history"`
	MaxResults          int       `json:"max_results"`
}

type FacilityResult struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Building      string  `json:"building"`
	SemanticScore float32 `json:"semantic_score"`
}

type Response struct {
	Response       string           `json:"response"`
	Facilities     []FacilityResult `json:"facilities"`
	TotalFound     int              `json:"total_found"`
	QueryProcessed string           `json:"query_processed"`
}
