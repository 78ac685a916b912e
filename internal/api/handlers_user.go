package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medikab/clinic-api/internal/auth"
	"github.com/medikab/clinic-api/internal/user"
)

type userRequest struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	Phone     *string `json:"phone"`
	Specialty *string `json:"specialty"`
}

func createUserHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.Create(r.Context(), user.CreateInput{
			Name:      req.Name,
			Email:     req.Email,
			Password:  req.Password,
			Role:      req.Role,
			Phone:     req.Phone,
			Specialty: req.Specialty,
		})
		if err != nil {
			handleUserError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func getUserHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		u, err := svc.Get(r.Context(), id)
		if err != nil {
			handleUserError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, u)
	}
}

func listUsersHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, offset := pageParams(r, 20)

		items, total, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			handleUserError(w, err)
			return
		}
		if items == nil {
			items = []user.User{}
		}
		writeList(w, items, NewPagination(page, limit, total))
	}
}

func updateUserHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var req userRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.Update(r.Context(), id, user.UpdateInput{
			Name:      req.Name,
			Email:     req.Email,
			Password:  req.Password,
			Role:      req.Role,
			Phone:     req.Phone,
			Specialty: req.Specialty,
		})
		if err != nil {
			handleUserError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deleteUserHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			handleUserError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
	}
}

func handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, user.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "duplicate_email", "another user already uses this email")
	case errors.Is(err, user.ErrLastDoctor):
		writeError(w, http.StatusConflict, "last_doctor", "at least one doctor account must remain")
	case errors.Is(err, user.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
	case errors.Is(err, auth.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
