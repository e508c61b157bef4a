package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/landbook/registry"
)

type foreignRecord struct{}

func (foreignRecord) Collection() registry.Collection      { return "widgets" }
func (foreignRecord) RecordID() registry.ID                { return 0 }
func (f foreignRecord) WithID(registry.ID) registry.Record { return f }

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		rec       registry.Record
		wantField string // empty means valid
	}{
		{"client ok", registry.Client{Name: "Ana", Phone: "1"}, ""},
		{"client address optional", registry.Client{Name: "Ana", Phone: "1", Address: ""}, ""},
		{"client missing name", registry.Client{Phone: "1"}, "name"},
		{"client blank name", registry.Client{Name: " \t", Phone: "1"}, "name"},
		{"client missing phone", registry.Client{Name: "Ana"}, "phone"},
		{"client negative id", registry.Client{ID: -1, Name: "Ana", Phone: "1"}, "id"},
		{"parcel ok", registry.Parcel{ClientID: 1, Address: "Lot 9"}, ""},
		{"parcel missing client", registry.Parcel{Address: "Lot 9"}, "client_id"},
		{"parcel missing address", registry.Parcel{ClientID: 1}, "address"},
		{"debt ok", registry.Debt{ParcelID: 1, Amount: dec("0.01")}, ""},
		{"debt missing parcel", registry.Debt{Amount: dec("1")}, "parcel_id"},
		{"debt zero amount", registry.Debt{ParcelID: 1}, "amount"},
		{"debt negative amount", registry.Debt{ParcelID: 1, Amount: dec("-1")}, "amount"},
		{"nil record", nil, "record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Validate(tt.rec)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *registry.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.True(t, errors.Is(err, registry.ErrValidation))
		})
	}
}

func TestValidate_UnsupportedType(t *testing.T) {
	err := registry.Validate(foreignRecord{})
	assert.ErrorIs(t, err, registry.ErrValidation)
}
