package api

import (
	"log"
	"strings"

	"ragapi/app/agent"
	"ragapi/prompt"
	"ragapi/retriever"
	"ragapi/store"
	"ragapi/types"

	"github.com/gofiber/fiber/v2"
)

const (
	chatContextK   = 4
	chatHistoryLen = 10
)

type ChatHandler struct {
	contextStore store.DBStorer
	retriever    *retriever.Retriever
	prompts      *prompt.Loader
}

func NewChatHandler(contextStore store.DBStorer, r *retriever.Retriever) *ChatHandler {
	return &ChatHandler{
		contextStore: contextStore,
		retriever:    r,
		prompts:      prompt.NewLoader(),
	}
}

// HandleChat answers a conversational request grounded on retrieved context.
// Retrieval failures degrade to an empty context instead of failing the chat.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	userText := strings.TrimSpace(params.ChatInput)
	if userText == "" {
		return types.NewValidationError(map[string]string{"chat_input": "cannot be blank"})
	}

	// History is read before the current turn is stored, so the prompt
	// carries prior turns only and the question is not repeated.
	ctx := c.Context()
	history, err := h.contextStore.GetHistory(ctx, params.SessionID, chatHistoryLen)
	if err != nil {
		return err
	}

	if err := h.contextStore.SaveMessage(ctx, types.ChatMessage{
		SessionID: params.SessionID,
		Role:      "user",
		Content:   userText,
	}); err != nil {
		return err
	}

	hits, err := h.retriever.Search(ctx, userText, chatContextK, nil)
	if err != nil {
		log.Printf("[CHAT] retrieval degraded to empty context: %v", err)
		hits = nil
	}

	snippets := make([]string, 0, len(hits))
	sources := make([]types.ChatSource, 0, len(hits))
	for _, hit := range hits {
		snippets = append(snippets, hit.Content)
		src := types.ChatSource{Similarity: hit.Similarity}
		if id, ok := hit.Metadata["file_id"].(string); ok {
			src.FileID = id
		}
		if title, ok := hit.Metadata["file_title"].(string); ok {
			src.FileTitle = title
		}
		sources = append(sources, src)
	}

	system, err := h.prompts.Get()
	if err != nil {
		return err
	}

	answer, err := agent.GenerateAnswer(system, snippets, history, userText)
	if err != nil {
		log.Printf("[CHAT] LLM call failed: %v", err)
		return NewError(fiber.StatusInternalServerError, "LLM backend error")
	}

	if err := h.contextStore.SaveMessage(ctx, types.ChatMessage{
		SessionID: params.SessionID,
		Role:      "assistant",
		Content:   answer,
	}); err != nil {
		return err
	}

	return c.JSON(types.ChatResponse{
		Status:  "ok",
		Answer:  answer,
		Sources: sources,
	})
}
