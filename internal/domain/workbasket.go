package domain

import "time"

// WorkbasketType categorizes a workbasket.
type WorkbasketType string

const (
	WorkbasketTypePersonal  WorkbasketType = "PERSONAL"
	WorkbasketTypeGroup     WorkbasketType = "GROUP"
	WorkbasketTypeClearance WorkbasketType = "CLEARANCE"
	WorkbasketTypeTopic     WorkbasketType = "TOPIC"
)

// WorkbasketSummary is the slice of a workbasket carried on tasks.
type WorkbasketSummary struct {
	ID     string
	Key    string
	Name   string
	Domain string
	Type   WorkbasketType
	Owner  string
}

// Workbasket is an authorization boundary and routing destination for tasks.
// Distribution targets form a directed graph; cycles are permitted since
// distribution only ever resolves immediate targets.
type Workbasket struct {
	WorkbasketSummary
	Description         string
	DistributionTargets []string
	Created             time.Time
	Modified            time.Time
}

// WorkbasketAccessItem grants a permission set to one access id (user or
// group) on one workbasket. At most one item exists per
// (workbasket id, access id) pair.
type WorkbasketAccessItem struct {
	ID           string
	WorkbasketID string
	AccessID     string
	AccessName   string
	Permissions  Permission
}
