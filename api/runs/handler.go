// Package runs exposes batch scheduling runs over HTTP: querying past run
// records and triggering a new run.
package runs

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/4Lajf/grafikonator-6000/core/errs"
	"github.com/4Lajf/grafikonator-6000/core/logger"
	"github.com/4Lajf/grafikonator-6000/core/runlog"
	"github.com/4Lajf/grafikonator-6000/core/scheduling"
)

const dateLayout = "2006-01-02"

// Runner triggers one batch scheduling run. *scheduling.Scheduler satisfies
// it.
type Runner interface {
	ScheduleDay(ctx context.Context, date string) (scheduling.BatchResult, error)
}

// NewQueryHandler returns an HTTP handler exposing run records via
// GET /api/runs. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewQueryHandler(store runlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, token) {
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := runlog.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.Date = r.URL.Query().Get("date")
		q.DepartmentID = r.URL.Query().Get("department_id")
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewTriggerHandler returns an HTTP handler starting a batch run via
// POST /api/runs with a JSON body {"date": "2006-01-02"}. The detailed
// error text is only returned when detail is true; production deployments
// get the redacted message for the error kind.
func NewTriggerHandler(runner Runner, token string, detail bool, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, token) {
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Date string `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if _, err := time.Parse(dateLayout, req.Date); err != nil {
			http.Error(w, "date must be formatted as "+dateLayout, http.StatusBadRequest)
			return
		}
		result, err := runner.ScheduleDay(r.Context(), req.Date)
		if err != nil {
			log.Errorf("batch run for %s failed: %v", req.Date, err)
			http.Error(w, errs.Classify(err).Public(detail), statusFor(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func authorized(w http.ResponseWriter, r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	if r.Header.Get("Authorization") != "Bearer "+token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindNoCandidate:
		return http.StatusConflict
	case errs.KindDuplicate:
		return http.StatusConflict
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
