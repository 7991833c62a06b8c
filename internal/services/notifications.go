package services

import (
	"context"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// NotificationService manages in-app notification records.
type NotificationService struct {
	store store.Store
}

func NewNotificationService(s store.Store) *NotificationService {
	return &NotificationService{store: s}
}

func (s *NotificationService) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	out, err := s.store.Notifications().Create(ctx, n)
	if err != nil {
		return nil, model.StoreErr("put-notification", err)
	}
	return out, nil
}

func (s *NotificationService) ListByEmail(ctx context.Context, email string) ([]*model.Notification, error) {
	out, err := s.store.Notifications().ListByEmail(ctx, email)
	if err != nil {
		return nil, model.StoreErr("list-notifications", err)
	}
	if out == nil {
		out = []*model.Notification{}
	}
	return out, nil
}
