package chat

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/campusfind/server/internal/errors"
	"codeberg.org/campusfind/server/internal/llm"
	"codeberg.org/campusfind/server/internal/retriever"
	"codeberg.org/campusfind/server/internal/vectorindex"
)

// the slice of the retrieval pipeline the handler needs
type Retriever interface {
	Retrieve(ctx context.Context, message string, history []llm.Message, maxResults int) (*retriever.Result, error)
}

// ChatHandler answers one conversational search turn. Requests are validated
// before any model call is made, and the whole turn runs under a deadline so
// a stuck provider cannot hold the connection open.
func ChatHandler(svc Retriever, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			errors.BadRequest(c, "message must not be empty", nil)
			return
		}

		if req.MaxResults < 0 {
			errors.BadRequest(c, "max_results must not be negative", nil)
			return
		}

		history := make([]llm.Message, 0, len(req.ConversationHistory))
		for _, turn := range req.ConversationHistory {
			if strings.TrimSpace(turn.Content) == "" {
				continue
			}

			history = append(history, llm.Message{Role: turn.Role, Content: turn.Content})
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		result, err := svc.Retrieve(ctx, req.Message, history, req.MaxResults)
		if err != nil {
			switch {
			case stderrors.Is(err, vectorindex.ErrNotBuilt):
				errors.ServiceUnavailable(c, errors.CodeIndexNotReady,
					"facility index has not been built yet, call /load-facilities first", nil)
			case stderrors.Is(err, retriever.ErrEmbedding):
				errors.ServiceUnavailable(c, errors.CodeRetrievalFailed,
					"could not process query, please try again", err)
			default:
				errors.InternalError(c, "chat request failed", err)
			}

			return
		}

		facilities := make([]FacilityResult, 0, len(result.Matches))
		for _, m := range result.Matches {
			facilities = append(facilities, FacilityResult{
				ID:            m.FacilityID,
				Name:          m.Name,
				Type:          m.Type,
				Building:      m.Building,
				SemanticScore: m.Score,
			})
		}

		c.JSON(http.StatusOK, Response{
			Response:       result.Summary,
			Facilities:     facilities,
			TotalFound:     result.TotalFound,
			QueryProcessed: result.Query,
		})
	}
}
