package domain_test

import (
	"testing"

	"github.com/mtlprog/taskbasket/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPermissionHas(t *testing.T) {
	granted := domain.PermissionRead | domain.PermissionAppend | domain.PermissionTransfer

	assert.True(t, granted.Has(domain.PermissionRead))
	assert.True(t, granted.Has(domain.PermissionRead|domain.PermissionAppend))
	assert.False(t, granted.Has(domain.PermissionDistribute))
	// Has requires every flag, not just one.
	assert.False(t, granted.Has(domain.PermissionRead|domain.PermissionDistribute))
}

func TestPermissionUnion(t *testing.T) {
	clerk := domain.PermissionRead | domain.PermissionOpen
	lead := domain.PermissionTransfer | domain.PermissionDistribute

	combined := clerk.Union(lead)
	assert.True(t, combined.Has(clerk))
	assert.True(t, combined.Has(lead))

	var none domain.Permission
	assert.Equal(t, clerk, none.Union(clerk))
}

func TestPermissionString(t *testing.T) {
	assert.Equal(t, "NONE", domain.Permission(0).String())
	assert.Equal(t, "READ", domain.PermissionRead.String())
	assert.Equal(t, "READ,APPEND,CUSTOM_3",
		(domain.PermissionRead | domain.PermissionAppend | domain.PermissionCustom3).String())
}
