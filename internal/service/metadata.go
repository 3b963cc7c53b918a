package service

import (
	"context"
	"errors"

	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/internal/store/model"
)

type MetadataService struct {
	store store.Store
}

func NewMetadataService(s store.Store) *MetadataService {
	return &MetadataService{store: s}
}

// GetMetadata does not tell a pending extraction apart from a failed one.
func (m *MetadataService) GetMetadata(ctx context.Context, id string) (*model.Metadata, error) {
	md, err := m.store.Metadata().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrMetadataNotFound(id)
		}
		return nil, err
	}
	return md, nil
}
