package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/respond"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/validate"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/services"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

// VerifyEmail POST /user/verify-email
func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.VerifyEmail(in.Email, in.Code); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	res, err := h.svc.VerifyEmail(r.Context(), in.Email, in.Code)
	if err != nil {
		respond.WriteInternalError(w, "Email could not be verified.", err)
		return
	}
	if !res.Verified {
		respond.WriteSoft(w, res.Message, nil)
		return
	}
	respond.WriteSuccess(w, res.Message, nil)
}

// EmailStatus GET /user/verify-email?email=
func (h *UserHandler) EmailStatus(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if err := validate.Email(email); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	verified, err := h.svc.EmailStatus(r.Context(), email)
	if errors.Is(err, model.ErrNotFound) {
		respond.WriteNotFound(w, fmt.Sprintf("Account for %s does not exist.", email))
		return
	}
	if err != nil {
		respond.WriteInternalError(w, "Verification status unavailable.", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "emailVerified": verified})
}
