package types

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type TextIngestParams struct {
	FileID  string `json:"file_id" validate:"required,max=255"`
	Title   string `json:"title" validate:"required,max=512"`
	URL     string `json:"url" validate:"required,max=2048"`
	Content string `json:"content" validate:"required"`
}

type RowsIngestParams struct {
	FileID      string            `json:"file_id" validate:"required,max=255"`
	Title       string            `json:"title" validate:"required,max=512"`
	URL         string            `json:"url" validate:"required,max=2048"`
	Rows        []json.RawMessage `json:"rows" validate:"required,min=1"`
	FullRefresh bool              `json:"full_refresh"`
}

type ChatParams struct {
	SessionID string `json:"session_id" validate:"required,max=255"`
	ChatInput string `json:"chat_input" validate:"required,max=4000"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *TextIngestParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *RowsIngestParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *ChatParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: http.StatusUnprocessableEntity,
		Errors: errors,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

type TextIngestResponse struct {
	Status         string `json:"status"`
	Mode           string `json:"mode"`
	ChunksInserted int    `json:"chunks_inserted"`
}

type RowsIngestResponse struct {
	Status       string   `json:"status"`
	Mode         string   `json:"mode"`
	RowsInserted int      `json:"rows_inserted"`
	RowsDeleted  int      `json:"rows_deleted"`
	SchemaKeys   []string `json:"schema_keys"`
}

type SearchResponse struct {
	Status  string         `json:"status"`
	Query   string         `json:"query"`
	K       int            `json:"k"`
	Filter  map[string]any `json:"filter"`
	Results []SearchHit    `json:"results"`
}

type ChatResponse struct {
	Status  string       `json:"status"`
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"sources"`
}

type ChatSource struct {
	FileID     string  `json:"file_id"`
	FileTitle  string  `json:"file_title"`
	Similarity float64 `json:"similarity"`
}
