package registry_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/landbook/registry"
)

func TestErrors_UnwrapToSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		message  string
	}{
		{&registry.ValidationError{Collection: registry.Clients, Field: "name", Reason: "is required"},
			registry.ErrValidation, "invalid clients: name is required"},
		{&registry.ReferenceError{Collection: registry.Parcels, Field: "client_id", Target: 4, Message: registry.MsgClientNotFound},
			registry.ErrReference, "client not found (parcels client_id=4)"},
		{&registry.ConstraintError{Collection: registry.Clients, ID: 1, Message: registry.MsgClientHasParcels, Dependents: 2},
			registry.ErrConstraint, "client has dependent parcels (clients id=1, 2 dependents)"},
		{&registry.ConstraintError{Collection: registry.Clients, ID: 1, Message: registry.MsgDuplicateID},
			registry.ErrConstraint, "id already exists (clients id=1)"},
		{&registry.NotFoundError{Collection: registry.Debts, ID: 3},
			registry.ErrNotFound, "debts id=3 not found"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.EqualError(t, tt.err, tt.message)

			wrapped := fmt.Errorf("api: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel, "sentinel survives wrapping")
		})
	}
}

func TestErrors_Helpers(t *testing.T) {
	assert.True(t, registry.IsClientError(&registry.ValidationError{}))
	assert.True(t, registry.IsClientError(&registry.ReferenceError{}))
	assert.True(t, registry.IsClientError(&registry.ConstraintError{}))
	assert.False(t, registry.IsClientError(&registry.NotFoundError{}))
	assert.False(t, registry.IsClientError(errors.New("disk full")))

	assert.True(t, registry.IsNotFound(&registry.NotFoundError{}))
	assert.False(t, registry.IsNotFound(registry.ErrNotInitialized))
}
