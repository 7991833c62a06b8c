package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/respond"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/validate"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/services"
)

type OrderHandler struct {
	orders *services.OrderService
	users  *services.UserService
}

func NewOrderHandler(orders *services.OrderService, users *services.UserService) *OrderHandler {
	return &OrderHandler{orders: orders, users: users}
}

// CreateOrder POST /order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	p, err := validate.Order(raw)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	// the authenticated caller is the requester; a body email may only restate it
	requester := p.Email
	if pr, ok := auth.PrincipalFrom(r.Context()); ok && pr.Email != "" {
		if p.Email != "" && !strings.EqualFold(p.Email, pr.Email) {
			respond.WriteBadRequest(w, "email must match the authenticated account")
			return
		}
		requester = pr.Email
	}
	if requester == "" {
		respond.WriteBadRequest(w, "email is required")
		return
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		name = h.users.DisplayName(r.Context(), requester)
	}

	res, err := h.orders.Submit(r.Context(), services.IntakeRequest{
		Region:        p.State,
		Kind:          p.Kind,
		Plaintiffs:    p.Plaintiffs,
		Defendants:    p.Defendants,
		Notify:        p.Notify,
		Requester:     requester,
		RequesterName: name,
		Payload:       p.Extra,
	})
	if err != nil {
		respond.WriteInternalError(w, "Order could not be created.", err)
		return
	}

	switch {
	case res.State != services.StateDone:
		respond.WriteSoft(w, res.Message, nil)
	case res.Success():
		respond.WriteSuccess(w, res.Message, res.Order)
	default:
		respond.WriteSoft(w, res.Message, map[string]any{
			"order":    res.Order,
			"outcomes": res.Outcomes,
		})
	}
}

// ListOrders GET /order?limit=&page=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	p, err := h.orders.List(r.Context(), limit, page)
	if err != nil {
		respond.WriteInternalError(w, "Orders could not be listed.", err)
		return
	}
	var lastKey any
	if p.Cursor != "" {
		lastKey = map[string]string{"number": p.Cursor}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"total":            p.Total,
		"limit":            p.Limit,
		"page":             p.Page,
		"list":             p.Items,
		"lastEvaluatedKey": lastKey,
	})
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &queryError{key: key}
	}
	return n, nil
}

type queryError struct{ key string }

func (e *queryError) Error() string { return e.key + " must be a non-negative integer" }
