/*
handlers.go - HTTP API handlers for the landbook registry

ENDPOINTS:
  Clients:
    GET    /api/clients                 List clients (sorted by name)
    POST   /api/clients                 Create client
    GET    /api/clients/{id}            Get client
    PUT    /api/clients/{id}            Replace client
    DELETE /api/clients/{id}            Remove client (409 while parcels exist)
    GET    /api/clients/{id}/parcels    Parcels of a client
    GET    /api/clients/{id}/balance    Debt totals of a client

  Parcels:
    GET    /api/parcels                 List parcels (sorted by address)
    POST   /api/parcels                 Create parcel (422 for unknown client)
    GET    /api/parcels/{id}            Get parcel with owner summary
    PUT    /api/parcels/{id}            Replace parcel
    DELETE /api/parcels/{id}            Remove parcel (409 while debts exist)
    GET    /api/parcels/{id}/debts      Debts of a parcel

  Debts:
    GET    /api/debts                   List debts (latest due date first)
    POST   /api/debts                   Create debt (422 for unknown parcel)
    GET    /api/debts/{id}              Get debt
    PUT    /api/debts/{id}              Replace debt
    DELETE /api/debts/{id}              Remove debt
    GET    /api/debts/{id}/summary      One-line debt summary

  Helpers:
    GET    /api/format-date?value=...   Locale short date

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Delete blocked by dependents, duplicate id
  - 422: Reference to a missing client or parcel
  - 503: Registry not initialized
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/landbook/registry"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *registry.Registry
}

// NewHandler creates a new handler over an initialized registry.
func NewHandler(reg *registry.Registry) *Handler {
	return &Handler{Registry: reg}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients := h.Registry.ListClients()
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = h.clientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.Registry.GetClient(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.clientDTO(c))
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.Registry.AddClient(r.Context(), req.toClient(0))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.clientDTO(c))
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req ClientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.Registry.UpdateClient(r.Context(), req.toClient(id))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.clientDTO(c))
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Registry.RemoveClient(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListClientParcels(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if _, err := h.Registry.GetClient(id); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.parcelDTOs(h.Registry.ParcelsForClient(id)))
}

func (h *Handler) GetClientBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	b, err := h.Registry.ClientBalance(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// =============================================================================
// PARCEL HANDLERS
// =============================================================================

func (h *Handler) ListParcels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.parcelDTOs(h.Registry.ListParcels()))
}

func (h *Handler) GetParcel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.Registry.GetParcel(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.parcelDTO(p))
}

func (h *Handler) CreateParcel(w http.ResponseWriter, r *http.Request) {
	var req ParcelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.Registry.AddParcel(r.Context(), req.toParcel(0))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.parcelDTO(p))
}

func (h *Handler) UpdateParcel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req ParcelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.Registry.UpdateParcel(r.Context(), req.toParcel(id))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.parcelDTO(p))
}

func (h *Handler) DeleteParcel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Registry.RemoveParcel(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListParcelDebts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if _, err := h.Registry.GetParcel(id); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.debtDTOs(h.Registry.DebtsForParcel(id)))
}

// =============================================================================
// DEBT HANDLERS
// =============================================================================

func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.debtDTOs(h.Registry.ListDebts()))
}

func (h *Handler) GetDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	d, err := h.Registry.GetDebt(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.debtDTO(d))
}

func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req DebtRequest
	if !decodeBody(w, r, &req) {
		return
	}
	debt, err := req.toDebt(0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date", err)
		return
	}
	d, err := h.Registry.AddDebt(r.Context(), debt)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.debtDTO(d))
}

func (h *Handler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req DebtRequest
	if !decodeBody(w, r, &req) {
		return
	}
	debt, err := req.toDebt(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date", err)
		return
	}
	d, err := h.Registry.UpdateDebt(r.Context(), debt)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.debtDTO(d))
}

func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Registry.RemoveDebt(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetDebtSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	d, err := h.Registry.GetDebt(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryDTO{ID: d.ID, Summary: h.Registry.DebtSummary(d)})
}

// FormatDate formats the "value" query parameter with the registry locale.
func (h *Handler) FormatDate(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	writeJSON(w, http.StatusOK, FormatDateDTO{Value: value, Formatted: h.Registry.FormatDate(value)})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) clientDTO(c registry.Client) ClientDTO {
	return ClientDTO{
		ID:      c.ID,
		Name:    c.Name,
		Phone:   c.Phone,
		Address: c.Address,
		Display: h.Registry.ClientDisplayName(c.ID),
	}
}

func (h *Handler) parcelDTO(p registry.Parcel) ParcelDTO {
	return ParcelDTO{
		ID:            p.ID,
		ClientID:      p.ClientID,
		Address:       p.Address,
		Area:          p.Area,
		Price:         p.Price,
		ClientDisplay: h.Registry.ClientDisplayName(p.ClientID),
	}
}

func (h *Handler) parcelDTOs(parcels []registry.Parcel) []ParcelDTO {
	dtos := make([]ParcelDTO, len(parcels))
	for i, p := range parcels {
		dtos[i] = h.parcelDTO(p)
	}
	return dtos
}

func (h *Handler) debtDTO(d registry.Debt) DebtDTO {
	return DebtDTO{
		ID:             d.ID,
		ParcelID:       d.ParcelID,
		Amount:         d.Amount,
		DueDate:        formatDueDate(d.DueDate),
		DueDateDisplay: h.Registry.FormatDate(formatDueDate(d.DueDate)),
		Status:         d.Status,
		Summary:        h.Registry.DebtSummary(d),
	}
}

func (h *Handler) debtDTOs(debts []registry.Debt) []DebtDTO {
	dtos := make([]DebtDTO, len(debts))
	for i, d := range debts {
		dtos[i] = h.debtDTO(d)
	}
	return dtos
}

func idParam(w http.ResponseWriter, r *http.Request) (registry.ID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return registry.ID(n), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeRegistryError maps registry errors onto HTTP statuses.
func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, registry.ErrReference):
		writeError(w, http.StatusUnprocessableEntity, "Reference not found", err)
	case errors.Is(err, registry.ErrConstraint):
		writeError(w, http.StatusConflict, "Constraint violated", err)
	case errors.Is(err, registry.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, registry.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "Registry not initialized", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
