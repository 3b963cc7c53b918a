package service

import (
	"context"
	"errors"

	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/internal/store/model"
)

type StatusService struct {
	store store.Store
}

func NewStatusService(s store.Store) *StatusService {
	return &StatusService{store: s}
}

func (s *StatusService) GetStatus(ctx context.Context, id string) (*model.ConversionStatus, error) {
	status, err := s.store.Conversion().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrDocumentNotFound(id)
		}
		return nil, err
	}
	return status, nil
}
