package api

import (
	"net/http"

	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/transfer"
)

// DonationsHandler records donations.
type DonationsHandler struct {
	Transfers *transfer.Coordinator
}

type createDonationRequest struct {
	DonorName  string `json:"donor_name"`
	BloodType  string `json:"blood_type"`
	Units      int    `json:"units"`
	HospitalID int64  `json:"hospital_id"`
}

// Create handles POST /api/donations. The hospital defaults to the caller's.
func (h *DonationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDonationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if req.HospitalID == 0 && claims.HospitalID != nil {
		req.HospitalID = *claims.HospitalID
	}
	if !claims.CanActFor(req.HospitalID) {
		jsonError(w, http.StatusForbidden, "not allowed for this hospital")
		return
	}

	donation, err := h.Transfers.RecordDonation(r.Context(), model.NewDonation{
		DonorName:  req.DonorName,
		BloodType:  model.BloodType(req.BloodType),
		Units:      req.Units,
		HospitalID: req.HospitalID,
	})
	if err != nil {
		writeError(w, r, err, "failed to record donation")
		return
	}
	jsonResponse(w, http.StatusCreated, donation)
}
