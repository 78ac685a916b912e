package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medikab/clinic-api/internal/appointment"
)

type appointmentRequest struct {
	PatientID       string  `json:"patient_id"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Type            string  `json:"type"`
	Reason          *string `json:"reason"`
	Notes           *string `json:"notes"`
	Status          string  `json:"status"`
}

func (req *appointmentRequest) toModel(w http.ResponseWriter) (*appointment.Appointment, bool) {
	a := &appointment.Appointment{
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Reason:          req.Reason,
		Notes:           req.Notes,
		Status:          appointment.Status(req.Status),
	}

	if req.PatientID != "" {
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return nil, false
		}
		a.PatientID = patientID
	}

	if req.StartTime != "" {
		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return nil, false
		}
		a.StartTime = start
	}

	return a, true
}

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		a, ok := req.toModel(w)
		if !ok {
			return
		}

		booked, err := svc.Book(r.Context(), a)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, booked)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, detail)
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, offset := pageParams(r, 50)

		filter, ok := appointmentFilter(w, r)
		if !ok {
			return
		}

		items, total, err := svc.List(r.Context(), filter, limit, offset)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		if items == nil {
			items = []appointment.Detail{}
		}
		writeList(w, items, NewPagination(page, limit, total))
	}
}

func appointmentFilter(w http.ResponseWriter, r *http.Request) (appointment.ListFilter, bool) {
	var filter appointment.ListFilter
	q := r.URL.Query()

	if raw := q.Get("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return filter, false
		}
		filter.Day = &day
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := q.Get(key); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_"+key, key+" must be RFC 3339")
				return filter, false
			}
			*dst = &ts
		}
	}
	if raw := q.Get("status"); raw != "" {
		status := appointment.Status(raw)
		if !appointment.ValidStatus(status) {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown appointment status")
			return filter, false
		}
		filter.Status = &status
	}
	if raw := q.Get("patient_id"); raw != "" {
		patientID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return filter, false
		}
		filter.PatientID = &patientID
	}

	return filter, true
}

func updateAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var req appointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		a, ok := req.toModel(w)
		if !ok {
			return
		}
		a.ID = id

		updated, err := svc.Reschedule(r.Context(), a)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func updateAppointmentStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), id, appointment.Status(req.Status))
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
	}
}

func handleAppointmentError(w http.ResponseWriter, err error) {
	var conflict *appointment.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, struct {
			Success bool                 `json:"success"`
			Error   string               `json:"error"`
			Details string               `json:"details"`
			Data    appointment.Conflict `json:"data"`
		}{false, "time_conflict", err.Error(), conflict.Conflict})
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "this time is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrCrossesMidnight):
		writeError(w, http.StatusBadRequest, "crosses_midnight", err.Error())
	case errors.Is(err, appointment.ErrInvalidAppointment):
		writeError(w, http.StatusBadRequest, "invalid_appointment", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
