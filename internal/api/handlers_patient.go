package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medikab/clinic-api/internal/patient"
)

func createPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p patient.Patient
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.Create(r.Context(), &p)
		if err != nil {
			handlePatientError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func getPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		p, err := svc.Get(r.Context(), id)
		if err != nil {
			handlePatientError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, p)
	}
}

func listPatientsHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, offset := pageParams(r, 10)

		filter := patient.ListFilter{Search: r.URL.Query().Get("search")}
		if g := r.URL.Query().Get("gender"); g != "" {
			gender := patient.Gender(g)
			filter.Gender = &gender
		}

		patients, total, err := svc.List(r.Context(), filter, limit, offset)
		if err != nil {
			handlePatientError(w, err)
			return
		}
		if patients == nil {
			patients = []patient.Patient{}
		}
		writeList(w, patients, NewPagination(page, limit, total))
	}
}

func updatePatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var p patient.Patient
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		p.ID = id

		updated, err := svc.Update(r.Context(), &p)
		if err != nil {
			handlePatientError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deletePatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			handlePatientError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
	}
}

func handlePatientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, patient.ErrDuplicatePhone):
		writeError(w, http.StatusConflict, "duplicate_phone", "another patient already uses this phone number")
	case errors.Is(err, patient.ErrInvalidPatient):
		writeError(w, http.StatusBadRequest, "invalid_patient", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// parseID reads the {id} URL parameter. A false return means the error is
// already written.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
