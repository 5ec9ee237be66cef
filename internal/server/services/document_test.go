package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/common"
	"github.com/strongholdapp/docsync/internal/dbx"
	"github.com/strongholdapp/docsync/internal/server/models"
	devicesrepo "github.com/strongholdapp/docsync/internal/server/repositories/devices"
	documentsrepo "github.com/strongholdapp/docsync/internal/server/repositories/documents"
	referencerepo "github.com/strongholdapp/docsync/internal/server/repositories/reference"
	refreshtokensrepo "github.com/strongholdapp/docsync/internal/server/repositories/refreshtokens"
	usersrepo "github.com/strongholdapp/docsync/internal/server/repositories/users"
)

type fakeDocsRepo struct {
	byID      map[string]*models.Document
	upserted  []*models.Document
	upsertErr error

	listOut    []*models.Document
	listKind   string
	listBefore *time.Time
	listLimit  int
}

func (f *fakeDocsRepo) GetByID(ctx context.Context, ownerID, id string) (*models.Document, error) {
	doc, ok := f.byID[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocsRepo) Upsert(ctx context.Context, doc *models.Document) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, doc)
	return nil
}

func (f *fakeDocsRepo) List(ctx context.Context, ownerID string, kind string, before *time.Time, limit int) ([]*models.Document, error) {
	f.listKind = kind
	f.listBefore = before
	f.listLimit = limit
	return f.listOut, nil
}

type fakeDevicesRepo struct {
	upserted []*models.Device
	listOut  []*models.Device
}

func (f *fakeDevicesRepo) Upsert(ctx context.Context, d *models.Device) error {
	f.upserted = append(f.upserted, d)
	return nil
}

func (f *fakeDevicesRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Device, error) {
	return f.listOut, nil
}

type fakeReferenceRepo struct {
	templates []*models.Template
	rules     []*models.ValidationRule
}

func (f *fakeReferenceRepo) Templates(ctx context.Context, jurisdiction string) ([]*models.Template, error) {
	return f.templates, nil
}

func (f *fakeReferenceRepo) ValidationRules(ctx context.Context, jurisdiction string) ([]*models.ValidationRule, error) {
	return f.rules, nil
}

type fakeDocRepoManager struct {
	docs *fakeDocsRepo
	devs *fakeDevicesRepo
	ref  *fakeReferenceRepo
}

func (m *fakeDocRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeDocRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return nil }
func (m *fakeDocRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return nil }
func (m *fakeDocRepoManager) Documents(db dbx.DBTX) documentsrepo.Repository         { return m.docs }
func (m *fakeDocRepoManager) Devices(db dbx.DBTX) devicesrepo.Repository             { return m.devs }
func (m *fakeDocRepoManager) Reference(db dbx.DBTX) referencerepo.Repository         { return m.ref }

func TestGet_DecodesMetadata(t *testing.T) {
	docs := &fakeDocsRepo{byID: map[string]*models.Document{
		"d1": {ID: "d1", OwnerID: "u1", Kind: "will", Title: "My Will",
			Metadata: []byte(`{"witness":"bob"}`), Version: 3},
	}}
	s := NewDocumentService(nil, &fakeDocRepoManager{docs: docs})

	w, err := s.Get(context.Background(), "u1", "d1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if w.Metadata["witness"] != "bob" {
		t.Fatalf("metadata not decoded: %+v", w.Metadata)
	}
	if w.Version != 3 {
		t.Fatalf("unexpected version: %d", w.Version)
	}
}

func TestGet_WrongOwner(t *testing.T) {
	docs := &fakeDocsRepo{byID: map[string]*models.Document{
		"d1": {ID: "d1", OwnerID: "u1"},
	}}
	s := NewDocumentService(nil, &fakeDocRepoManager{docs: docs})

	_, err := s.Get(context.Background(), "u2", "d1")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsert_ForcesOwnerAndTimestamp(t *testing.T) {
	docs := &fakeDocsRepo{}
	s := NewDocumentService(nil, &fakeDocRepoManager{docs: docs})

	err := s.Upsert(context.Background(), "u1", api.Document{ID: "d1", OwnerID: "spoofed", Kind: "will", Version: 1})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if len(docs.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(docs.upserted))
	}
	got := docs.upserted[0]
	if got.OwnerID != "u1" {
		t.Fatalf("owner not overridden: %q", got.OwnerID)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("updated_at not defaulted")
	}
}

func TestUpsert_VersionConflictPassesThrough(t *testing.T) {
	docs := &fakeDocsRepo{upsertErr: common.ErrVersionConflict}
	s := NewDocumentService(nil, &fakeDocRepoManager{docs: docs})

	err := s.Upsert(context.Background(), "u1", api.Document{ID: "d1", Version: 1})
	if !errors.Is(err, common.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestQuery_Documents_CursorAndLimit(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocsRepo{listOut: []*models.Document{
		{ID: "d1", OwnerID: "u1", Kind: "will", Metadata: []byte(`{}`), UpdatedAt: t0},
	}}
	s := NewDocumentService(nil, &fakeDocRepoManager{docs: docs})

	resp, err := s.Query(context.Background(), "u1", api.QueryRequest{
		Source:  "documents",
		Filters: map[string]any{"kind": "will"},
		Cursor:  t0.Format(time.RFC3339Nano),
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if docs.listLimit != 10 {
		t.Fatalf("limit not propagated: %d", docs.listLimit)
	}
	if docs.listKind != "will" {
		t.Fatalf("kind filter not propagated: %q", docs.listKind)
	}
	if docs.listBefore == nil || !docs.listBefore.Equal(t0) {
		t.Fatalf("cursor not parsed: %v", docs.listBefore)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(resp.Rows))
	}
	var w api.Document
	if err := json.Unmarshal(resp.Rows[0], &w); err != nil {
		t.Fatalf("row does not decode as a document: %v", err)
	}
	if w.ID != "d1" {
		t.Fatalf("unexpected row: %+v", w)
	}
}

func TestQuery_Documents_LimitClamped(t *testing.T) {
	docs := &fakeDocsRepo{}
	s := NewDocumentService(nil, &fakeDocRepoManager{docs: docs})

	if _, err := s.Query(context.Background(), "u1", api.QueryRequest{Source: "documents", Limit: 10000}); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if docs.listLimit != maxQueryLimit {
		t.Fatalf("limit not clamped: %d", docs.listLimit)
	}

	if _, err := s.Query(context.Background(), "u1", api.QueryRequest{Source: "documents"}); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if docs.listLimit != defaultQueryLimit {
		t.Fatalf("limit not defaulted: %d", docs.listLimit)
	}
}

func TestQuery_Documents_UnsupportedFilter(t *testing.T) {
	s := NewDocumentService(nil, &fakeDocRepoManager{docs: &fakeDocsRepo{}})

	_, err := s.Query(context.Background(), "u1", api.QueryRequest{
		Source:  "documents",
		Filters: map[string]any{"owner_id": "someone-else"},
	})
	if !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestQuery_Documents_BadCursor(t *testing.T) {
	s := NewDocumentService(nil, &fakeDocRepoManager{docs: &fakeDocsRepo{}})

	_, err := s.Query(context.Background(), "u1", api.QueryRequest{Source: "documents", Cursor: "not-a-time"})
	if err == nil || !strings.Contains(err.Error(), "invalid cursor") {
		t.Fatalf("expected cursor error, got %v", err)
	}
}

func TestQuery_Devices(t *testing.T) {
	devs := &fakeDevicesRepo{listOut: []*models.Device{
		{DeviceID: "dev-1", OwnerID: "u1", DisplayName: "laptop"},
		{DeviceID: "dev-2", OwnerID: "u1", DisplayName: "phone"},
	}}
	s := NewDocumentService(nil, &fakeDocRepoManager{devs: devs})

	resp, err := s.Query(context.Background(), "u1", api.QueryRequest{Source: "devices"})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if resp.Total == nil || *resp.Total != 2 {
		t.Fatalf("total not set: %v", resp.Total)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("expected two rows, got %d", len(resp.Rows))
	}
}

func TestQuery_UnknownSource(t *testing.T) {
	s := NewDocumentService(nil, &fakeDocRepoManager{})

	_, err := s.Query(context.Background(), "u1", api.QueryRequest{Source: "beneficiaries"})
	if err == nil || !strings.Contains(err.Error(), "unknown query source") {
		t.Fatalf("expected unknown source error, got %v", err)
	}
}

func TestReferencePack(t *testing.T) {
	ref := &fakeReferenceRepo{
		templates: []*models.Template{{ID: "t1", Jurisdiction: "US", Kind: "will", Title: "Simple Will", Body: "I, ..."}},
		rules:     []*models.ValidationRule{{ID: "v1", Jurisdiction: "US", Field: "witnesses", Rule: "min:2", Message: "two witnesses required"}},
	}
	s := NewDocumentService(nil, &fakeDocRepoManager{ref: ref})

	pack, err := s.ReferencePack(context.Background(), "US")
	if err != nil {
		t.Fatalf("ReferencePack error: %v", err)
	}
	if len(pack.Templates) != 1 || pack.Templates[0].Title != "Simple Will" {
		t.Fatalf("templates not converted: %+v", pack.Templates)
	}
	if len(pack.ValidationRules) != 1 || pack.ValidationRules[0].Rule != "min:2" {
		t.Fatalf("rules not converted: %+v", pack.ValidationRules)
	}
	if pack.FetchedAt.IsZero() {
		t.Fatal("fetched_at not set")
	}
}
