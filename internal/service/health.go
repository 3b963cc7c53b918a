package service

import (
	"context"

	"github.com/docpipe/docpipe/internal/store"
)

// HealthService reports whether the status store answers.
type HealthService struct {
	store store.Store
}

func NewHealthService(s store.Store) *HealthService {
	return &HealthService{store: s}
}

func (h *HealthService) Check(ctx context.Context) error {
	_, err := h.store.Conversion().CountByStatus(ctx)
	return err
}
