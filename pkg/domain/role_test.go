package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custody/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleManufacturer, ParseRole("manufacturer"))
	assert.Equal(t, RoleCustomer, ParseRole(" Customer "))
	assert.Equal(t, RoleNone, ParseRole("None"))
	assert.Equal(t, RoleNone, ParseRole("Wholesaler"))
	assert.False(t, RoleNone.IsValid())
	assert.Equal(t, "Unknown", Role(42).String())
}

func TestRoleText(t *testing.T) {
	var r Role
	require.NoError(t, r.UnmarshalText([]byte("Retailer")))
	assert.Equal(t, RoleRetailer, r)

	require.NoError(t, r.UnmarshalText([]byte("none")))
	assert.Equal(t, RoleNone, r)

	err := r.UnmarshalText([]byte("Wholesaler"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRole))

	out, err := RoleDistributor.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Distributor", string(out))
}
