package adapthttp

import (
	"net/http"
)

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	days := intQuery(r, "days", 0)
	unit := r.URL.Query().Get("unit")

	chart, err := s.charts.Series(r.Context(), s.userID(r), days, unit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}
