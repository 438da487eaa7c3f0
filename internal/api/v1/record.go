package v1

import (
	"fmt"
	"time"
)

// Record is one raw entry of a user's activity history, as produced by the
// upstream import pipeline. Aggregations consume records; they never write them.
type Record struct {
	// ID is unique per UserID.
	ID string `json:"id"`

	// UserID owns the history this record belongs to.
	UserID string `json:"user_id"`

	// Product is the service the activity happened on (e.g. "YouTube", "YouTube Music").
	Product string `json:"product"`

	Title   string `json:"title"`
	Channel string `json:"channel"`

	// Topics are the categories attached to the activity. Unordered.
	Topics []string `json:"topics,omitempty"`

	// OccurredAt is when the activity happened (client clock).
	OccurredAt time.Time `json:"occurred_at"`

	// Metadata carries side-channel attributes from the importer (e.g. source file).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate ensures the record has all required attributes.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}

	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	if r.Product == "" {
		return fmt.Errorf("product is required")
	}

	if r.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	return nil
}
