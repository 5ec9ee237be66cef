package client

import (
	"context"
	"errors"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/client/repositories/metadata"
	"github.com/strongholdapp/docsync/internal/common"
)

// MetadataTokenStore persists the token pair in the local metadata KV so a
// login survives restarts.
type MetadataTokenStore struct {
	meta metadata.Repository
}

func NewMetadataTokenStore(meta metadata.Repository) *MetadataTokenStore {
	return &MetadataTokenStore{meta: meta}
}

func (s *MetadataTokenStore) Tokens(ctx context.Context) (api.TokenPair, error) {
	access, err := s.meta.Get(ctx, metadata.KeyAccessToken)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return api.TokenPair{}, err
	}
	refresh, err := s.meta.Get(ctx, metadata.KeyRefreshToken)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return api.TokenPair{}, err
	}
	return api.TokenPair{AccessToken: string(access), RefreshToken: string(refresh)}, nil
}

func (s *MetadataTokenStore) Save(ctx context.Context, pair api.TokenPair) error {
	if err := s.meta.Set(ctx, metadata.KeyAccessToken, []byte(pair.AccessToken)); err != nil {
		return err
	}
	return s.meta.Set(ctx, metadata.KeyRefreshToken, []byte(pair.RefreshToken))
}
