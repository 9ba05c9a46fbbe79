package dto

import (
	"time"

	"github.com/google/uuid"

	"model-promotion-service/internal/core/domain"
)

// RevisionResponse represents one stored revision of a record
type RevisionResponse struct {
	ID           uuid.UUID  `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	Environment  string     `json:"environment"`
	ModelName    string     `json:"model_name"`
	Revision     int        `json:"revision"`
	Record       *RecordDTO `json:"record"`
	CommitSHA    string     `json:"commit_sha,omitempty"`
	Author       string     `json:"author,omitempty"`
	Active       bool       `json:"active"`
	SupersededAt *time.Time `json:"superseded_at,omitempty"`
}

// ListRevisionsResponse represents a page of revisions
type ListRevisionsResponse struct {
	Items      []RevisionResponse `json:"items"`
	Total      int                `json:"total"`
	PageSize   int                `json:"page_size"`
	NextOffset int                `json:"next_offset"`
}

// ToRevisionResponse converts a domain revision to a response DTO
func ToRevisionResponse(rev *domain.ConfigRevision) RevisionResponse {
	return RevisionResponse{
		ID:           rev.ID,
		CreatedAt:    rev.CreatedAt,
		Environment:  string(rev.Environment),
		ModelName:    rev.ModelName,
		Revision:     rev.Revision,
		Record:       ToRecordDTO(rev.Config),
		CommitSHA:    rev.CommitSHA,
		Author:       rev.Author,
		Active:       rev.IsActive(),
		SupersededAt: rev.SupersededAt,
	}
}
