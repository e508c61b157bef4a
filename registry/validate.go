package registry

import "fmt"

// Validate checks the required fields of a record.
//
//	Client: name, phone
//	Parcel: client_id, address
//	Debt:   parcel_id, amount > 0
//
// Text is compared after Normalize, so whitespace-only values are rejected.
func Validate(rec Record) error {
	switch r := Normalize(rec).(type) {
	case Client:
		if r.Name == "" {
			return required(Clients, "name")
		}
		if r.Phone == "" {
			return required(Clients, "phone")
		}
	case Parcel:
		if r.ClientID <= 0 {
			return required(Parcels, "client_id")
		}
		if r.Address == "" {
			return required(Parcels, "address")
		}
	case Debt:
		if r.ParcelID <= 0 {
			return required(Debts, "parcel_id")
		}
		if !r.Amount.IsPositive() {
			return &ValidationError{Collection: Debts, Field: "amount", Reason: "must be greater than zero"}
		}
	case nil:
		return &ValidationError{Field: "record", Reason: "is required"}
	default:
		return fmt.Errorf("%w: unsupported record type %T", ErrValidation, rec)
	}
	if rec.RecordID() < 0 {
		return &ValidationError{Collection: rec.Collection(), Field: "id", Reason: "must not be negative"}
	}
	return nil
}

func required(c Collection, field string) error {
	return &ValidationError{Collection: c, Field: field, Reason: "is required"}
}
