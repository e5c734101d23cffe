package api

import (
	"ragapi/ingest"
	"ragapi/model"
	"ragapi/store"
	"ragapi/types"

	"github.com/gofiber/fiber/v2"
)

type IngestHandler struct {
	texts *ingest.TextIngestor
	rows  *ingest.Syncer
}

func NewIngestHandler(contextStore store.DBStorer, embedder model.EmbedderInterface) *IngestHandler {
	return &IngestHandler{
		texts: ingest.NewTextIngestor(contextStore, embedder),
		rows:  ingest.NewSyncer(contextStore),
	}
}

// HandleIngestText replaces every stored chunk of the document with a fresh
// chunking of the submitted content.
func (h *IngestHandler) HandleIngestText(c *fiber.Ctx) error {
	var params types.TextIngestParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	inserted, err := h.texts.Ingest(c.Context(), params)
	if err != nil {
		return err
	}

	return c.JSON(types.TextIngestResponse{
		Status:         "ok",
		Mode:           ingest.ModeFullReplace,
		ChunksInserted: inserted,
	})
}

// HandleIngestRows syncs a tabular row set, incrementally by default or as a
// full refresh when the request asks for one.
func (h *IngestHandler) HandleIngestRows(c *fiber.Ctx) error {
	var params types.RowsIngestParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	result, err := h.rows.SyncRows(c.Context(), params)
	if err != nil {
		return err
	}

	return c.JSON(types.RowsIngestResponse{
		Status:       "ok",
		Mode:         result.Mode,
		RowsInserted: result.RowsInserted,
		RowsDeleted:  result.RowsDeleted,
		SchemaKeys:   result.SchemaKeys,
	})
}
