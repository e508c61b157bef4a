/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:
  Decimals travel as JSON strings ("200.50") to keep precision; requests
  accept both strings and bare numbers.

DATES:
  due_date is accepted as RFC 3339 or YYYY-MM-DD and returned as RFC 3339,
  with a locale-formatted copy in due_date_display.

VALIDATION:
  Validation is done by the registry, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/landbook/registry"
)

// =============================================================================
// CLIENTS
// =============================================================================

type ClientDTO struct {
	ID      registry.ID `json:"id"`
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	Address string      `json:"address"`
	Display string      `json:"display"`
}

// ClientRequest is the body of client create and update calls.
type ClientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (r ClientRequest) toClient(id registry.ID) registry.Client {
	return registry.Client{ID: id, Name: r.Name, Phone: r.Phone, Address: r.Address}
}

// =============================================================================
// PARCELS
// =============================================================================

type ParcelDTO struct {
	ID            registry.ID     `json:"id"`
	ClientID      registry.ID     `json:"client_id"`
	Address       string          `json:"address"`
	Area          decimal.Decimal `json:"area"`
	Price         decimal.Decimal `json:"price"`
	ClientDisplay string          `json:"client_display"`
}

// ParcelRequest is the body of parcel create and update calls.
type ParcelRequest struct {
	ClientID registry.ID     `json:"client_id"`
	Address  string          `json:"address"`
	Area     decimal.Decimal `json:"area"`
	Price    decimal.Decimal `json:"price"`
}

func (r ParcelRequest) toParcel(id registry.ID) registry.Parcel {
	return registry.Parcel{ID: id, ClientID: r.ClientID, Address: r.Address, Area: r.Area, Price: r.Price}
}

// =============================================================================
// DEBTS
// =============================================================================

type DebtDTO struct {
	ID             registry.ID     `json:"id"`
	ParcelID       registry.ID     `json:"parcel_id"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        string          `json:"due_date"`
	DueDateDisplay string          `json:"due_date_display"`
	Status         string          `json:"status"`
	Summary        string          `json:"summary"`
}

// DebtRequest is the body of debt create and update calls.
// An empty due_date means now; an empty status means "Pending".
type DebtRequest struct {
	ParcelID registry.ID     `json:"parcel_id"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  string          `json:"due_date,omitempty"`
	Status   string          `json:"status,omitempty"`
}

func (r DebtRequest) toDebt(id registry.ID) (registry.Debt, error) {
	d := registry.Debt{ID: id, ParcelID: r.ParcelID, Amount: r.Amount, Status: r.Status}
	if r.DueDate != "" {
		t, err := registry.ParseDate(r.DueDate)
		if err != nil {
			return registry.Debt{}, err
		}
		d.DueDate = t
	}
	return d, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// FormatDateDTO is the response of the date formatting helper.
type FormatDateDTO struct {
	Value     string `json:"value"`
	Formatted string `json:"formatted"`
}

// SummaryDTO wraps a one-line summary.
type SummaryDTO struct {
	ID      registry.ID `json:"id"`
	Summary string      `json:"summary"`
}

// ErrorResponse is the error envelope of every failed call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func formatDueDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
