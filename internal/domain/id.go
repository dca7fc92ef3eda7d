package domain

import "github.com/google/uuid"

// Id prefixes identify the entity type at a glance in logs and references.
const (
	taskIDPrefix       = "TKI:"
	externalIDPrefix   = "ETI:"
	workbasketIDPrefix = "WBI:"
	accessItemIDPrefix = "WAI:"
)

// NewTaskID generates a task id.
func NewTaskID() string { return taskIDPrefix + uuid.NewString() }

// NewExternalID generates a default external id for callback correlation.
func NewExternalID() string { return externalIDPrefix + uuid.NewString() }

// NewWorkbasketID generates a workbasket id.
func NewWorkbasketID() string { return workbasketIDPrefix + uuid.NewString() }

// NewAccessItemID generates a workbasket access item id.
func NewAccessItemID() string { return accessItemIDPrefix + uuid.NewString() }
