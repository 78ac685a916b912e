package api

import (
	"encoding/json"
	"net/http"

	"github.com/medikab/clinic-api/internal/clinic"
	"github.com/medikab/clinic-api/internal/reporting"
)

func getSettingsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.Get(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeSuccess(w, http.StatusOK, settings)
	}
}

func updateSettingsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s clinic.Settings
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.Update(r.Context(), &s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func dashboardHandler(svc *reporting.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Dashboard(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeSuccess(w, http.StatusOK, d)
	}
}
