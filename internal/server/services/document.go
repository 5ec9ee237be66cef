package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/common"
	"github.com/strongholdapp/docsync/internal/server/models"
	"github.com/strongholdapp/docsync/internal/server/repositories/repomanager"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 200
)

// DocumentService owns the authoritative document store, the device registry
// and the reference data: per-document reads and version-guarded writes, the
// generic query endpoint with cursor pagination, and the offline reference
// pack.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager) *DocumentService {
	return &DocumentService{db: db, repomanager: m}
}

// Get returns the owner's document in wire form.
func (s *DocumentService) Get(ctx context.Context, ownerID, id string) (*api.Document, error) {
	repo := s.repomanager.Documents(s.db)
	doc, err := repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	w, err := doc.ToWire()
	if err != nil {
		return nil, fmt.Errorf("error decoding document metadata: %w", err)
	}
	return &w, nil
}

// Upsert writes the document. The repository enforces that the version only
// moves forward; a stale write surfaces as common.ErrVersionConflict.
func (s *DocumentService) Upsert(ctx context.Context, ownerID string, w api.Document) error {
	doc, err := models.DocumentFromWire(w)
	if err != nil {
		return fmt.Errorf("error encoding document metadata: %w", err)
	}
	doc.OwnerID = ownerID
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	repo := s.repomanager.Documents(s.db)
	return repo.Upsert(ctx, doc)
}

// Query serves the generic read endpoint. Pagination is cursor-based on
// updated_at: the caller sends back the last row's updated_at as the cursor
// for the next page.
func (s *DocumentService) Query(ctx context.Context, ownerID string, req api.QueryRequest) (*api.QueryResponse, error) {
	switch req.Source {
	case "documents":
		return s.queryDocuments(ctx, ownerID, req)
	case "devices":
		return s.queryDevices(ctx, ownerID)
	default:
		return nil, fmt.Errorf("%w: unknown query source %q", common.ErrInvalidArgument, req.Source)
	}
}

func (s *DocumentService) queryDocuments(ctx context.Context, ownerID string, req api.QueryRequest) (*api.QueryResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	var before *time.Time
	if req.Cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, req.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid cursor: %v", common.ErrInvalidArgument, err)
		}
		before = &t
	}

	var kind string
	for k, v := range req.Filters {
		if k != "kind" {
			return nil, fmt.Errorf("%w: unsupported filter %q", common.ErrInvalidArgument, k)
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: filter %q must be a string", common.ErrInvalidArgument, k)
		}
		kind = str
	}

	repo := s.repomanager.Documents(s.db)
	docs, err := repo.List(ctx, ownerID, kind, before, limit)
	if err != nil {
		return nil, err
	}

	resp := &api.QueryResponse{Rows: make([]json.RawMessage, 0, len(docs))}
	for _, doc := range docs {
		w, err := doc.ToWire()
		if err != nil {
			return nil, fmt.Errorf("error decoding document metadata: %w", err)
		}
		b, err := json.Marshal(w)
		if err != nil {
			return nil, err
		}
		resp.Rows = append(resp.Rows, b)
	}
	return resp, nil
}

func (s *DocumentService) queryDevices(ctx context.Context, ownerID string) (*api.QueryResponse, error) {
	repo := s.repomanager.Devices(s.db)
	devs, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	resp := &api.QueryResponse{Rows: make([]json.RawMessage, 0, len(devs))}
	for _, d := range devs {
		b, err := json.Marshal(api.Device{
			DeviceID:    d.DeviceID,
			OwnerID:     d.OwnerID,
			DisplayName: d.DisplayName,
			DeviceClass: d.DeviceClass,
			Platform:    d.Platform,
			LastSeen:    d.LastSeen,
			IsOnline:    d.IsOnline,
			SyncEnabled: d.SyncEnabled,
		})
		if err != nil {
			return nil, err
		}
		resp.Rows = append(resp.Rows, b)
	}
	total := int64(len(devs))
	resp.Total = &total
	return resp, nil
}

// UpsertDevice registers or refreshes a device record for the owner.
func (s *DocumentService) UpsertDevice(ctx context.Context, ownerID string, w api.Device) error {
	repo := s.repomanager.Devices(s.db)
	return repo.Upsert(ctx, &models.Device{
		DeviceID:    w.DeviceID,
		OwnerID:     ownerID,
		DisplayName: w.DisplayName,
		DeviceClass: w.DeviceClass,
		Platform:    w.Platform,
		LastSeen:    w.LastSeen,
		IsOnline:    w.IsOnline,
		SyncEnabled: w.SyncEnabled,
	})
}

// ReferencePack bundles the jurisdiction's templates and validation rules.
func (s *DocumentService) ReferencePack(ctx context.Context, jurisdiction string) (*api.ReferencePack, error) {
	repo := s.repomanager.Reference(s.db)

	templates, err := repo.Templates(ctx, jurisdiction)
	if err != nil {
		return nil, err
	}
	rules, err := repo.ValidationRules(ctx, jurisdiction)
	if err != nil {
		return nil, err
	}

	pack := &api.ReferencePack{
		Templates:       make([]api.Template, 0, len(templates)),
		ValidationRules: make([]api.ValidationRule, 0, len(rules)),
		FetchedAt:       time.Now().UTC(),
	}
	for _, t := range templates {
		pack.Templates = append(pack.Templates, api.Template{
			ID: t.ID, Jurisdiction: t.Jurisdiction, Kind: t.Kind, Title: t.Title, Body: t.Body,
		})
	}
	for _, v := range rules {
		pack.ValidationRules = append(pack.ValidationRules, api.ValidationRule{
			ID: v.ID, Jurisdiction: v.Jurisdiction, Field: v.Field, Rule: v.Rule, Message: v.Message,
		})
	}
	return pack, nil
}
