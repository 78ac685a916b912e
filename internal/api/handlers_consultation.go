package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/medikab/clinic-api/internal/consultation"
)

func createConsultationHandler(svc *consultation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c consultation.Consultation
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		// The acting doctor signs the record unless one is named explicitly.
		if c.DoctorID == uuid.Nil {
			if claims := ClaimsFrom(r.Context()); claims != nil {
				c.DoctorID = claims.UserID
			}
		}

		created, err := svc.Create(r.Context(), &c)
		if err != nil {
			handleConsultationError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func getConsultationHandler(svc *consultation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		c, err := svc.Get(r.Context(), id)
		if err != nil {
			handleConsultationError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, c)
	}
}

func listConsultationsHandler(svc *consultation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, offset := pageParams(r, 20)

		filter := consultation.ListFilter{Search: r.URL.Query().Get("search")}
		if raw := r.URL.Query().Get("patient_id"); raw != "" {
			patientID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			filter.PatientID = &patientID
		}

		items, total, err := svc.List(r.Context(), filter, limit, offset)
		if err != nil {
			handleConsultationError(w, err)
			return
		}
		if items == nil {
			items = []consultation.Consultation{}
		}
		writeList(w, items, NewPagination(page, limit, total))
	}
}

func updateConsultationHandler(svc *consultation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var c consultation.Consultation
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		c.ID = id

		updated, err := svc.Update(r.Context(), &c)
		if err != nil {
			handleConsultationError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deleteConsultationHandler(svc *consultation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			handleConsultationError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
	}
}

func handleConsultationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, consultation.ErrConsultationNotFound):
		writeError(w, http.StatusNotFound, "consultation_not_found", err.Error())
	case errors.Is(err, consultation.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, consultation.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, consultation.ErrInvalidConsultation):
		writeError(w, http.StatusBadRequest, "invalid_consultation", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
