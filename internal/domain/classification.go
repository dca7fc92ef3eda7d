package domain

import "time"

// ClassificationSummary drives default task attributes.
type ClassificationSummary struct {
	ID           string
	Key          string
	Category     string
	Domain       string
	Name         string
	Description  string
	Priority     int
	ServiceLevel string // ISO-8601 duration, e.g. "P2D"
}

// ObjectReference correlates a task with a business object.
type ObjectReference struct {
	Company        string
	System         string
	SystemInstance string
	Type           string
	Value          string
}

// Attachment is auxiliary data attached to a task.
type Attachment struct {
	ID                    string
	TaskID                string
	Channel               string
	ClassificationSummary *ClassificationSummary
	ObjectReference       *ObjectReference
	Received              *time.Time
	Created               time.Time
	Modified              time.Time
}
