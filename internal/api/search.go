package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/store"
)

// SearchHandler finds stock across the network.
type SearchHandler struct {
	DB *sql.DB
}

type searchRequest struct {
	BloodType   string `json:"blood_type"`
	UnitsNeeded int    `json:"units_needed"`
	// Exact limits results to the requested type instead of every
	// compatible donor type.
	Exact bool `json:"exact"`
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bt, err := model.ParseBloodType(req.BloodType)
	if err != nil {
		writeError(w, r, err, "failed to search inventory")
		return
	}
	if req.UnitsNeeded <= 0 {
		jsonError(w, http.StatusBadRequest, "units_needed must be positive")
		return
	}

	entries, err := store.SearchAvailable(r.Context(), h.DB, bt, req.UnitsNeeded, !req.Exact)
	if err != nil {
		writeError(w, r, err, "failed to search inventory")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(entries))
}
