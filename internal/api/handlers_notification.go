package api

import (
	"encoding/json"
	"net/http"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/respond"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/validate"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/services"
)

const MsgNotificationCreated = "Notification has been created!"

type NotificationHandler struct {
	svc *services.NotificationService
}

func NewNotificationHandler(svc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// CreateNotification POST /notification
func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email   string `json:"email"`
		Title   string `json:"title"`
		Content string `json:"content"`
		IsRead  bool   `json:"isRead"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Notification(in.Email, in.Title, in.Content); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	n, err := h.svc.Create(r.Context(), &model.Notification{
		Email:   in.Email,
		Title:   in.Title,
		Content: in.Content,
		IsRead:  in.IsRead,
	})
	if err != nil {
		respond.WriteInternalError(w, "Notification could not be created.", err)
		return
	}
	respond.WriteSuccess(w, MsgNotificationCreated, n)
}

// ListNotifications GET /notification?email=
// Without an email query the caller's own inbox is listed.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		if p, ok := auth.PrincipalFrom(r.Context()); ok {
			email = p.Email
		}
	}
	if err := validate.Email(email); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	list, err := h.svc.ListByEmail(r.Context(), email)
	if err != nil {
		respond.WriteInternalError(w, "Notifications could not be listed.", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "list": list, "count": len(list)})
}
