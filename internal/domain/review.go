package domain

import "time"

// EntityType identifies what a review queue entry refers to.
type EntityType string

const (
	EntityJob     EntityType = "job"
	EntityCompany EntityType = "company"
)

// Review queue priorities and the status every entry starts in. Status
// transitions after that belong to the human-review workflow.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	ReviewStatusPending = "pending"
)

// ReviewQueueEntry flags a job or company for manual review. The engine only
// appends entries; inserting a duplicate while a pending entry exists is a
// no-op.
type ReviewQueueEntry struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Reason     string     `json:"reason"`
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}
