package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/recovery"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Orders        *OrderHandler
	Users         *UserHandler
	Notifications *NotificationHandler
	Health        *HealthHandler
}

// NewRouter wires the public routes. Order creation and inbox listing require
// a bearer token accepted by authz.
func NewRouter(h Handlers, authz auth.Authorizer) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)
	protect := auth.Middleware(authz)

	root.HandleFunc("/api/health", h.Health.CheckHealth).Methods("GET")

	// Orders
	root.HandleFunc("/order", h.Orders.ListOrders).Methods("GET")
	root.Handle("/order", protect(http.HandlerFunc(h.Orders.CreateOrder))).Methods("POST")

	// Users
	root.HandleFunc("/user/verify-email", h.Users.EmailStatus).Methods("GET")
	root.HandleFunc("/user/verify-email", h.Users.VerifyEmail).Methods("POST")

	// Notifications
	root.HandleFunc("/notification", h.Notifications.CreateNotification).Methods("POST")
	root.Handle("/notification", protect(http.HandlerFunc(h.Notifications.ListNotifications))).Methods("GET")

	return root
}
