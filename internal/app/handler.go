package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/randomoranges/can-do/internal/domain"
	"github.com/randomoranges/can-do/internal/engine"
)

// jobRequest is the invocation payload. A present user_id selects event mode.
type jobRequest struct {
	JobType string `json:"job_type"`
	UserID  string `json:"user_id,omitempty"`
}

// jobsHandler exposes the engine over a single POST endpoint. Per-user
// failures inside a batch still produce {"ok": true}; only a malformed
// request or a top-level failure yields an error response.
func (a *App) jobsHandler(eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The celebration trigger comes from the browser.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, content-type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req jobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
			return
		}
		job, err := domain.ParseJobType(req.JobType)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		a.log.Info("job received",
			zap.String("job", string(job)),
			zap.String("user", req.UserID),
		)

		outcomes, err := eng.Run(r.Context(), job, req.UserID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, engine.ErrEventJobUnsupported) {
				status = http.StatusBadRequest
			}
			a.log.Error("job run failed", zap.String("job", string(job)), zap.Error(err))
			writeError(w, status, err.Error())
			return
		}

		var sent, skipped, failed int
		for _, o := range outcomes {
			switch o.Status {
			case engine.StatusSent:
				sent++
			case engine.StatusSkipped:
				skipped++
			case engine.StatusFailed:
				failed++
			}
		}
		a.log.Info("job finished",
			zap.String("job", string(job)),
			zap.Int("sent", sent),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed),
		)

		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
