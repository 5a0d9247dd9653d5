package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		rc   int
		want string
	}{
		{OK, "ok"},
		{RCConnection, "connection error"},
		{RCInvalidParameter, "invalid parameter"},
		{RCNotPowered, "robot not powered"},
		{RCNotEnabled, "robot not enabled"},
		{RCInError, "robot in error"},
		{-42, "unknown error code -42"},
		{7, "unknown error code 7"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.rc), "rc=%d", tt.rc)
	}
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check("power_on", OK))

	err := Check("power_on", RCNotPowered)
	require.Error(t, err)
	assert.Equal(t, "power_on failed: robot not powered (rc=-3)", err.Error())

	var ce *CodeError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, RCNotPowered, ce.Code())
}
