// Package notify delivers party notifications over email and records the
// in-app copy that parties see in their inbox.
package notify

import (
	"context"
	"errors"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// ErrRejected marks a message the mail channel refused permanently. Callers
// surface it as a user-facing outcome rather than a system failure.
var ErrRejected = errors.New("message rejected")

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Gateway sends emails and records in-app notifications.
type Gateway interface {
	SendEmail(ctx context.Context, msg Message) error
	Record(ctx context.Context, email, title, content string) (*model.Notification, error)
}

// StoreGateway pairs a Mailer with the store's notification table.
type StoreGateway struct {
	mailer Mailer
	store  store.Store
}

func NewGateway(m Mailer, s store.Store) *StoreGateway {
	return &StoreGateway{mailer: m, store: s}
}

func (g *StoreGateway) SendEmail(ctx context.Context, msg Message) error {
	return g.mailer.Send(ctx, msg)
}

func (g *StoreGateway) Record(ctx context.Context, email, title, content string) (*model.Notification, error) {
	return g.store.Notifications().Create(ctx, &model.Notification{
		Email:   email,
		Title:   title,
		Content: content,
	})
}
