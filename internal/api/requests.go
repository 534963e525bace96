package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/bloodbank/internal/auth"
	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/store"
	"github.com/erazemk/bloodbank/internal/transfer"
)

// RequestsHandler handles the blood request lifecycle.
type RequestsHandler struct {
	DB        *sql.DB
	Transfers *transfer.Coordinator
}

// createRequestBody accepts both the current and the legacy field names.
type createRequestBody struct {
	RequestingHospitalID int64  `json:"requesting_hospital_id"`
	BloodType            string `json:"blood_type"`
	UnitsRequested       *int   `json:"units_requested"`
	QuantityNeeded       *int   `json:"quantity_needed"`
	PriorityLevel        string `json:"priority_level"`
	Priority             string `json:"priority"`
	PatientName          string `json:"patient_name"`
	PatientID            string `json:"patient_id"`
	RequestingDoctor     string `json:"requesting_doctor"`
	Purpose              string `json:"purpose"`
	Notes                string `json:"notes"`
}

func (b createRequestBody) units() int {
	switch {
	case b.UnitsRequested != nil:
		return *b.UnitsRequested
	case b.QuantityNeeded != nil:
		return *b.QuantityNeeded
	}
	return 0
}

func (b createRequestBody) priority() string {
	if b.PriorityLevel != "" {
		return b.PriorityLevel
	}
	return b.Priority
}

type updateStatusBody struct {
	Status              string `json:"status"`
	ApprovingHospitalID *int64 `json:"approving_hospital_id"`
	SourceHospitalID    *int64 `json:"source_hospital_id"`
}

// requestResponse echoes the unit count under its legacy name as well.
type requestResponse struct {
	model.BloodRequest
	QuantityNeeded int `json:"quantity_needed"`
}

func newRequestResponse(r *model.BloodRequest) requestResponse {
	return requestResponse{BloodRequest: *r, QuantityNeeded: r.UnitsRequested}
}

// Create handles POST /api/requests. The requester defaults to the caller's hospital.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if body.RequestingHospitalID == 0 && claims.HospitalID != nil {
		body.RequestingHospitalID = *claims.HospitalID
	}
	if !claims.CanActFor(body.RequestingHospitalID) {
		jsonError(w, http.StatusForbidden, "not allowed for this hospital")
		return
	}

	req, err := h.Transfers.SubmitRequest(r.Context(), model.NewRequest{
		RequestingHospitalID: body.RequestingHospitalID,
		BloodType:            model.BloodType(body.BloodType),
		UnitsRequested:       body.units(),
		Priority:             model.Priority(body.priority()),
		PatientName:          body.PatientName,
		PatientID:            body.PatientID,
		RequestingDoctor:     body.RequestingDoctor,
		Purpose:              body.Purpose,
		Notes:                body.Notes,
	})
	if err != nil {
		writeError(w, r, err, "failed to submit request")
		return
	}
	jsonResponse(w, http.StatusCreated, newRequestResponse(req))
}

// List handles GET /api/requests. Non-admins only see requests their
// hospital made or fulfilled, unless open=true asks for every pending request
// in the network.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hospitalID, ok := queryID(r, "hospital_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid hospital_id")
		return
	}

	filter := store.RequestFilter{HospitalID: hospitalID}
	if s := q.Get("status"); s != "" {
		status, err := model.ParseRequestStatus(s)
		if err != nil {
			writeError(w, r, err, "failed to list requests")
			return
		}
		filter.Status = status
	}
	if bt := q.Get("blood_type"); bt != "" {
		parsed, err := model.ParseBloodType(bt)
		if err != nil {
			writeError(w, r, err, "failed to list requests")
			return
		}
		filter.BloodType = parsed
	}

	claims := GetClaims(r.Context())
	if q.Get("open") == "true" {
		filter.Status = model.StatusPending
	} else if claims.Role != model.RoleAdmin {
		if claims.HospitalID == nil {
			jsonResponse(w, http.StatusOK, []requestResponse{})
			return
		}
		filter.HospitalID = *claims.HospitalID
	}

	requests, err := store.ListBloodRequests(r.Context(), h.DB, filter)
	if err != nil {
		writeError(w, r, err, "failed to list requests")
		return
	}

	out := make([]requestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, newRequestResponse(&requests[i]))
	}
	jsonResponse(w, http.StatusOK, out)
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := h.visibleRequest(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, newRequestResponse(req))
}

// UpdateStatus handles PUT /api/requests/{id}/status.
func (h *RequestsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := h.visibleRequest(w, r)
	if !ok {
		return
	}

	var body updateStatusBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	approver := body.ApprovingHospitalID
	if approver == nil {
		approver = body.SourceHospitalID
	}

	to, err := model.ParseRequestStatus(body.Status)
	if err != nil {
		writeError(w, r, err, "failed to update request status")
		return
	}
	if !mayChangeStatus(GetClaims(r.Context()), req, to, approver) {
		jsonError(w, http.StatusForbidden, "not allowed for this request")
		return
	}

	updated, err := h.Transfers.ChangeStatus(r.Context(), req.ID, string(to), approver)
	if err != nil {
		writeError(w, r, err, "failed to update request status")
		return
	}
	jsonResponse(w, http.StatusOK, newRequestResponse(updated))
}

// mayChangeStatus decides who may move req to status to. An approval is made
// on behalf of the approving hospital. Cancelling belongs to the requester.
// Rejecting is open to the requester and, once approved, to the source.
func mayChangeStatus(claims *auth.Claims, req *model.BloodRequest, to model.RequestStatus, approver *int64) bool {
	switch to {
	case model.StatusApproved:
		return approver == nil || claims.CanActFor(*approver)
	case model.StatusCancelled:
		return claims.CanActFor(req.RequestingHospitalID)
	default:
		return claims.CanActFor(req.RequestingHospitalID) ||
			(req.SourceHospitalID != nil && claims.CanActFor(*req.SourceHospitalID))
	}
}

// visibleRequest loads the request named in the path. Non-admins may see a
// request only if their hospital made it, fulfilled it, or could fulfil it
// while it is pending. It writes the error response itself.
func (h *RequestsHandler) visibleRequest(w http.ResponseWriter, r *http.Request) (*model.BloodRequest, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return nil, false
	}

	req, err := store.GetBloodRequest(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to get request")
		return nil, false
	}

	claims := GetClaims(r.Context())
	switch {
	case claims.Role == model.RoleAdmin:
	case claims.CanActFor(req.RequestingHospitalID):
	case req.SourceHospitalID != nil && claims.CanActFor(*req.SourceHospitalID):
	case req.Status == model.StatusPending && claims.HospitalID != nil:
	default:
		jsonError(w, http.StatusForbidden, "not allowed for this request")
		return nil, false
	}
	return req, true
}
