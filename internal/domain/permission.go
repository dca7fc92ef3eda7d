package domain

import "strings"

// Permission is a bit set of workbasket capabilities. The vocabulary is
// closed, so flags beat a dynamic collection.
type Permission uint32

const (
	PermissionRead Permission = 1 << iota
	PermissionReadTasks
	PermissionOpen
	PermissionAppend
	PermissionTransfer
	PermissionEditTasks
	PermissionDistribute
	PermissionCustom1
	PermissionCustom2
	PermissionCustom3
	PermissionCustom4
	PermissionCustom5
	PermissionCustom6
	PermissionCustom7
	PermissionCustom8
	PermissionCustom9
	PermissionCustom10
	PermissionCustom11
	PermissionCustom12
)

var permissionNames = []struct {
	flag Permission
	name string
}{
	{PermissionRead, "READ"},
	{PermissionReadTasks, "READTASKS"},
	{PermissionOpen, "OPEN"},
	{PermissionAppend, "APPEND"},
	{PermissionTransfer, "TRANSFER"},
	{PermissionEditTasks, "EDITTASKS"},
	{PermissionDistribute, "DISTRIBUTE"},
	{PermissionCustom1, "CUSTOM_1"},
	{PermissionCustom2, "CUSTOM_2"},
	{PermissionCustom3, "CUSTOM_3"},
	{PermissionCustom4, "CUSTOM_4"},
	{PermissionCustom5, "CUSTOM_5"},
	{PermissionCustom6, "CUSTOM_6"},
	{PermissionCustom7, "CUSTOM_7"},
	{PermissionCustom8, "CUSTOM_8"},
	{PermissionCustom9, "CUSTOM_9"},
	{PermissionCustom10, "CUSTOM_10"},
	{PermissionCustom11, "CUSTOM_11"},
	{PermissionCustom12, "CUSTOM_12"},
}

// Has reports whether every flag in q is present in p.
func (p Permission) Has(q Permission) bool {
	return p&q == q
}

// Union returns the combination of both permission sets.
func (p Permission) Union(q Permission) Permission {
	return p | q
}

// String renders the set as a comma-separated list of permission names.
func (p Permission) String() string {
	if p == 0 {
		return "NONE"
	}
	var names []string
	for _, pn := range permissionNames {
		if p.Has(pn.flag) {
			names = append(names, pn.name)
		}
	}
	return strings.Join(names, ",")
}

// Role is a global role granted to a caller, independent of workbaskets.
type Role string

const (
	RoleUser          Role = "USER"
	RoleMonitor       Role = "MONITOR"
	RoleTaskAdmin     Role = "TASK_ADMIN"
	RoleBusinessAdmin Role = "BUSINESS_ADMIN"
	RoleAdmin         Role = "ADMIN"
)
