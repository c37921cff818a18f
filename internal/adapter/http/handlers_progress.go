package adapthttp

import (
	"errors"
	"math"
	"net/http"

	log "github.com/sirupsen/logrus"

	"weightquest/internal/app"
)

// rejectReasons labels validation failures in the rejection metric.
var rejectReasons = map[error]string{
	app.ErrInvalidWeight: "invalid_weight",
	app.ErrInvalidUnit:   "invalid_unit",
	app.ErrInvalidDate:   "invalid_date",
	app.ErrFutureDate:    "future_date",
	app.ErrGoalNotSet:    "goal_not_set",
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrGoalNotSet), errors.Is(err, app.ErrGoalLocked):
		return http.StatusConflict
	case errors.Is(err, app.ErrInvalidWeight),
		errors.Is(err, app.ErrInvalidGoal),
		errors.Is(err, app.ErrInvalidUnit),
		errors.Is(err, app.ErrInvalidDate),
		errors.Is(err, app.ErrFutureDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.progress.Dashboard(r.Context(), s.userID(r)))
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		GoalPounds float64 `json:"goalPounds"`
	}
	if err := parseJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d, err := s.progress.SetGoal(r.Context(), s.userID(r), body.GoalPounds)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleWeight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Weight *float64 `json:"weight"`
		Unit   string   `json:"unit"`
		Date   string   `json:"date"`
	}
	if err := parseJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Weight == nil {
		s.countRejection(app.ErrInvalidWeight)
		writeError(w, http.StatusBadRequest, app.ErrInvalidWeight)
		return
	}

	userID := s.userID(r)
	d, err := s.progress.RecordWeight(r.Context(), userID, *body.Weight, body.Unit, body.Date)
	if err != nil {
		s.countRejection(err)
		log.WithError(err).WithField("user_id", userID).Debug("weight rejected")
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleConfirmLevelUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.progress.ConfirmLevelUp(r.Context(), s.userID(r)))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.progress.Reset(r.Context(), s.userID(r)))
}

func (s *Server) handleDevSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.progress.SeedDemo(r.Context(), s.userID(r)))
}

func (s *Server) handleDevAdjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := parseJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if math.IsNaN(body.Amount) || math.IsInf(body.Amount, 0) {
		writeError(w, http.StatusBadRequest, errors.New("amount must be a finite number"))
		return
	}
	writeJSON(w, http.StatusOK, s.progress.AdjustWeights(r.Context(), s.userID(r), body.Amount))
}

func (s *Server) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	for target, reason := range rejectReasons {
		if errors.Is(err, target) {
			s.metrics.CounterWeightRejected.WithLabelValues(reason).Inc()
			return
		}
	}
}
