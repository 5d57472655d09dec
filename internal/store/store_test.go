package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alexx-ftw/km77-scraper/pkg/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "km77.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func insertHierarchy(t *testing.T, s *Store) (*models.Make, *models.Model, *models.Trim) {
	t.Helper()
	ctx := context.Background()

	mk := &models.Make{ID: 1, Name: "SEAT", ChildrenURL: "https://www.km77.com/marcas/seat"}
	if err := s.InsertMake(ctx, mk); err != nil {
		t.Fatalf("InsertMake: %v", err)
	}
	mo := &models.Model{ID: 1, Name: "León", ChildrenURL: "https://www.km77.com/coches/seat/leon/datos", Make: mk}
	if err := s.InsertModel(ctx, mo); err != nil {
		t.Fatalf("InsertModel: %v", err)
	}
	tr := &models.Trim{ID: 1, Name: "1.5 TSI Style", ChildrenURL: "https://www.km77.com/coches/seat/leon/15-tsi", Model: mo}
	if err := s.InsertTrim(ctx, tr); err != nil {
		t.Fatalf("InsertTrim: %v", err)
	}
	return mk, mo, tr
}

func TestNextID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.NextID(ctx, KindMake)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != 1 {
		t.Errorf("empty table next id: got %d, want 1", id)
	}

	insertHierarchy(t, s)

	id, err = s.NextID(ctx, KindMake)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != 2 {
		t.Errorf("next id after insert: got %d, want 2", id)
	}
}

func TestInsert_DuplicateIsIgnored(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	mk, _, _ := insertHierarchy(t, s)

	// Same name and url: the unique constraint fires and the insert is a
	// no-op rather than an error.
	dup := &models.Make{ID: 2, Name: mk.Name, ChildrenURL: mk.ChildrenURL}
	if err := s.InsertMake(ctx, dup); err != nil {
		t.Fatalf("duplicate insert should not error: %v", err)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Makes != 1 {
		t.Errorf("expected 1 make, got %d", counts.Makes)
	}
}

func TestRawMarkupRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, _, tr := insertHierarchy(t, s)

	raw, err := s.ReadRaw(ctx, KindTrim, tr.ID)
	if err != nil {
		t.Fatalf("ReadRaw before write: %v", err)
	}
	if raw != "" {
		t.Errorf("expected empty markup, got %d bytes", len(raw))
	}

	markup := "<html><body>datos</body></html>"
	if err := s.WriteRaw(ctx, KindTrim, tr.ID, markup); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	raw, err = s.ReadRaw(ctx, KindTrim, tr.ID)
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if raw != markup {
		t.Errorf("markup mismatch: got %q", raw)
	}

	if _, err := s.ReadRaw(ctx, KindTrim, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing trim, got %v", err)
	}
}

func TestWriteRecords_AndLoadAll(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, _, tr := insertHierarchy(t, s)

	rec := models.Record{Caption: "Motor"}
	rec.Set("Potencia máxima", models.Text("170 CV / 125 kW"))
	rec.Set("Dirección", models.Section{{Key: "Tipo", Value: "Piñón y cremallera"}})

	opt := models.Record{Caption: "Faros"}
	opt.Set("Faros LED", models.Package{Price: "350 €", Addons: []string{}})

	if err := s.WriteRecords(ctx, tr.ID, RecordSpecs, []models.Record{rec}); err != nil {
		t.Fatalf("WriteRecords specs: %v", err)
	}
	if err := s.WriteRecords(ctx, tr.ID, RecordOptions, []models.Record{opt}); err != nil {
		t.Fatalf("WriteRecords options: %v", err)
	}
	// Writing again must be an idempotent upsert.
	if err := s.WriteRecords(ctx, tr.ID, RecordSpecs, []models.Record{rec}); err != nil {
		t.Fatalf("WriteRecords re-run: %v", err)
	}

	makes, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(makes) != 1 || len(makes[0].Models) != 1 || len(makes[0].Models[0].Trims) != 1 {
		t.Fatalf("hierarchy not restored: %+v", makes)
	}
	got := makes[0].Models[0].Trims[0]
	if !got.HasSpecOps() {
		t.Fatalf("records not restored: specs=%d options=%d", len(got.Specs), len(got.Options))
	}
	if got.Specs[0].Caption != "Motor" {
		t.Errorf("spec caption: got %q", got.Specs[0].Caption)
	}
	v, ok := got.Specs[0].Get("Potencia máxima")
	if !ok || v != models.Text("170 CV / 125 kW") {
		t.Errorf("spec value lost: %v", v)
	}
	if v, _ := got.Options[0].Get("Faros LED"); v.(models.Package).Price != "350 €" {
		t.Errorf("option package lost: %v", v)
	}
}

func TestTrimsMissingRaw(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, _, tr := insertHierarchy(t, s)

	missing, err := s.TrimsMissingRaw(ctx)
	if err != nil {
		t.Fatalf("TrimsMissingRaw: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != tr.ID {
		t.Fatalf("expected the fresh trim to be missing markup, got %+v", missing)
	}

	if err := s.WriteRaw(ctx, KindTrim, tr.ID, "<html></html>"); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	missing, err = s.TrimsMissingRaw(ctx)
	if err != nil {
		t.Fatalf("TrimsMissingRaw: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("expected no missing trims, got %d", len(missing))
	}
}
