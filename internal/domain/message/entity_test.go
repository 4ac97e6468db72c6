package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleTo(t *testing.T) {
	assert.True(t, VisibilityBoth.VisibleTo(RoleClient))
	assert.True(t, VisibilityBoth.VisibleTo(RoleProvider))

	assert.True(t, VisibilityClient.VisibleTo(RoleClient))
	assert.False(t, VisibilityClient.VisibleTo(RoleProvider))

	assert.True(t, VisibilityProvider.VisibleTo(RoleProvider))
	assert.False(t, VisibilityProvider.VisibleTo(RoleClient))

	assert.False(t, Visibility("hidden").VisibleTo(RoleClient))
}

func TestRoleCounterpart(t *testing.T) {
	assert.Equal(t, RoleProvider, RoleClient.Counterpart())
	assert.Equal(t, RoleClient, RoleProvider.Counterpart())
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("client"))
	assert.True(t, ValidRole("provider"))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
}
