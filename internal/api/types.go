// In file: internal/api/types.go

// Package api holds the request and response shapes shared by the HTTP layer,
// the engine and the history recorder.
package api

import (
	"time"

	"github.com/joshinii/ai-governance/internal/prompt"
)

// VariantRequest is the body of POST /api/v1/prompt-variants. The same fields
// are accepted as query parameters.
type VariantRequest struct {
	OriginalPrompt string `json:"original_prompt" form:"original_prompt"`
	Context        string `json:"context" form:"context"`
}

// HistoryRequest is the body of POST /api/v1/prompt-history.
type HistoryRequest struct {
	UserEmail       string           `json:"user_email" binding:"required"`
	OriginalPrompt  string           `json:"original_prompt" binding:"required"`
	FinalPrompt     string           `json:"final_prompt" binding:"required"`
	Tool            string           `json:"tool" binding:"required"`
	VariantsOffered []prompt.Variant `json:"variants_offered,omitempty"`
	VariantSelected *int             `json:"variant_selected,omitempty"`
	OriginalScore   *float64         `json:"original_score,omitempty"`
	FinalScore      *float64         `json:"final_score,omitempty"`
	HadPII          bool             `json:"had_pii"`
	PIITypes        []string         `json:"pii_types,omitempty"`
	SessionID       string           `json:"session_id,omitempty"`
}

// NoVariantSelected marks a record where the user kept the original prompt.
const NoVariantSelected = -1

// PromptRecord is the plain record of what a user was offered and what they
// finally sent. The core emits it; storage belongs to the history recorder.
type PromptRecord struct {
	ID               string           `json:"id"`
	User             string           `json:"user"`
	OriginalPrompt   string           `json:"original_prompt"`
	FinalPrompt      string           `json:"final_prompt"`
	Tool             string           `json:"tool"`
	VariantsOffered  []prompt.Variant `json:"variants_offered,omitempty"`
	VariantSelected  int              `json:"variant_selected"`
	OriginalScore    *float64         `json:"original_score,omitempty"`
	FinalScore       *float64         `json:"final_score,omitempty"`
	ImprovementDelta *float64         `json:"improvement_delta,omitempty"`
	HadPII           bool             `json:"had_pii"`
	PIITypes         []string         `json:"pii_types,omitempty"`
	SessionID        string           `json:"session_id,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}

// ComputeDelta sets ImprovementDelta when both scores are present.
func (r *PromptRecord) ComputeDelta() {
	r.ImprovementDelta = nil
	if r.OriginalScore != nil && r.FinalScore != nil {
		d := *r.FinalScore - *r.OriginalScore
		r.ImprovementDelta = &d
	}
}

// HistoryList is one page of a user's records, newest first.
type HistoryList struct {
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Items    []PromptRecord `json:"items"`
}

// ToolCount is one entry of HistoryStats.TopTools.
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// HistoryStats aggregates a user's records over a look-back window.
type HistoryStats struct {
	TotalPrompts        int            `json:"total_prompts"`
	AvgImprovement      float64        `json:"avg_improvement"`
	PIIIncidents        int            `json:"pii_incidents"`
	VariantAdoptionRate float64        `json:"variant_adoption_rate"`
	TopTools            []ToolCount    `json:"top_tools"`
	RecentPrompts       []PromptRecord `json:"recent_prompts"`
}

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
