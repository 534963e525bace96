package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/store"
)

// TransactionsHandler exposes the audit log.
type TransactionsHandler struct {
	DB *sql.DB
}

// filter reads hospital_id, type, status and limit from the query string.
// Non-admins are pinned to their own hospital.
func (h *TransactionsHandler) filter(w http.ResponseWriter, r *http.Request) (store.TransactionFilter, bool) {
	q := r.URL.Query()
	var f store.TransactionFilter

	hospitalID, ok := queryID(r, "hospital_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid hospital_id")
		return f, false
	}
	f.HospitalID = hospitalID

	switch t := model.TransactionType(q.Get("type")); t {
	case "", model.TransactionDonation, model.TransactionRequest, model.TransactionTransfer:
		f.Type = t
	default:
		jsonError(w, http.StatusBadRequest, "invalid transaction type")
		return f, false
	}

	switch s := q.Get("status"); s {
	case "", model.TransactionPending, model.TransactionCompleted, model.TransactionCancelled:
		f.Status = s
	default:
		jsonError(w, http.StatusBadRequest, "invalid transaction status")
		return f, false
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return f, false
		}
		f.Limit = limit
	}

	claims := GetClaims(r.Context())
	if claims.Role != model.RoleAdmin {
		if claims.HospitalID == nil {
			jsonError(w, http.StatusForbidden, "no hospital assigned")
			return f, false
		}
		f.HospitalID = *claims.HospitalID
	}
	return f, true
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}

	txs, err := store.ListTransactions(r.Context(), h.DB, f)
	if err != nil {
		writeError(w, r, err, "failed to list transactions")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(txs))
}

// Statistics handles GET /api/transactions/statistics.
func (h *TransactionsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}

	stats, err := store.TransactionStatistics(r.Context(), h.DB, f)
	if err != nil {
		writeError(w, r, err, "failed to get transaction statistics")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
