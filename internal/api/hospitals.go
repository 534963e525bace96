package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/store"
	"github.com/erazemk/bloodbank/internal/transfer"
)

// HospitalsHandler handles hospital registration and per-hospital views.
type HospitalsHandler struct {
	DB        *sql.DB
	Transfers *transfer.Coordinator
}

type createHospitalRequest struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	ContactPerson string `json:"contact_person"`
	ContactNumber string `json:"contact_number"`
}

// List handles GET /api/hospitals.
func (h *HospitalsHandler) List(w http.ResponseWriter, r *http.Request) {
	hospitals, err := store.ListHospitals(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err, "failed to list hospitals")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(hospitals))
}

// Create handles POST /api/hospitals.
func (h *HospitalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHospitalRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hospital, err := store.CreateHospital(r.Context(), h.DB, model.NewHospital{
		Name:          req.Name,
		Address:       req.Address,
		ContactPerson: req.ContactPerson,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		writeError(w, r, err, "failed to create hospital")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("hospital registered", "user", claims.Username, "hospital_id", hospital.ID, "name", hospital.Name)
	jsonResponse(w, http.StatusCreated, hospital)
}

// Get handles GET /api/hospitals/{id}.
func (h *HospitalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid hospital id")
		return
	}

	hospital, err := store.GetHospital(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to get hospital")
		return
	}
	jsonResponse(w, http.StatusOK, hospital)
}

// Inventory handles GET /api/hospitals/{id}/inventory.
func (h *HospitalsHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid hospital id")
		return
	}

	if _, err := store.GetHospital(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err, "failed to get inventory")
		return
	}

	entries, err := h.Transfers.GetInventory(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to get inventory")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(entries))
}

// Donations handles GET /api/hospitals/{id}/donations.
func (h *HospitalsHandler) Donations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownHospital(w, r)
	if !ok {
		return
	}

	donations, err := store.ListDonations(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to list donations")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(donations))
}

// RequestStatistics handles GET /api/hospitals/{id}/requests/statistics.
func (h *HospitalsHandler) RequestStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownHospital(w, r)
	if !ok {
		return
	}

	stats, err := store.RequestStatistics(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to get request statistics")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// ownHospital parses the hospital id and checks the caller may see its
// private records. It writes the error response itself.
func (h *HospitalsHandler) ownHospital(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid hospital id")
		return 0, false
	}
	if !GetClaims(r.Context()).CanActFor(id) {
		jsonError(w, http.StatusForbidden, "not allowed for this hospital")
		return 0, false
	}
	return id, true
}
