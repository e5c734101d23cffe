package api

import (
	"encoding/json"

	"ragapi/retriever"
	"ragapi/types"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultTopK = 5
	maxTopK     = 50
)

type SearchHandler struct {
	retriever *retriever.Retriever
}

func NewSearchHandler(r *retriever.Retriever) *SearchHandler {
	return &SearchHandler{
		retriever: r,
	}
}

// HandleSearch runs a semantic search: ?q=...&k=5&filter={"file_id":"abc"}
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	q := c.Query("q")
	k := c.QueryInt("k", defaultTopK)
	if k > maxTopK {
		return types.NewValidationError(map[string]string{"k": "must be at most 50"})
	}

	filter := map[string]any{}
	if raw := c.Query("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			return NewError(fiber.StatusBadRequest, "invalid JSON for 'filter'")
		}
	}

	hits, err := h.retriever.Search(c.Context(), q, k, filter)
	if err != nil {
		return err
	}
	if hits == nil {
		hits = []types.SearchHit{}
	}

	return c.JSON(types.SearchResponse{
		Status:  "ok",
		Query:   q,
		K:       k,
		Filter:  filter,
		Results: hits,
	})
}
