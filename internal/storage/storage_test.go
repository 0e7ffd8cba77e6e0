package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/field"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cropwise.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func sampleField(owner string) field.Field {
	return field.Field{
		OwnerID:   owner,
		Name:      "North plot",
		AreaHa:    10,
		Soil:      catalog.SoilClay,
		RentEurHa: 80,
	}
}

func TestCreateAndGetField(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateField(sampleField("alice"))
	if err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateField() did not assign an ID")
	}

	got, err := store.GetField(created.ID, "alice")
	if err != nil {
		t.Fatalf("GetField() error = %v", err)
	}
	if got.Name != "North plot" || got.AreaHa != 10 || got.Soil != catalog.SoilClay || got.RentEurHa != 80 {
		t.Errorf("GetField() = %+v", got)
	}
}

func TestGetFieldEnforcesOwnership(t *testing.T) {
	// A lookup by the wrong owner must be indistinguishable from a lookup of
	// a field that does not exist.
	store := openTestStore(t)

	created, err := store.CreateField(sampleField("alice"))
	if err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}

	_, wrongOwnerErr := store.GetField(created.ID, "mallory")
	_, missingErr := store.GetField("no-such-field", "alice")
	if !errors.Is(wrongOwnerErr, ErrFieldNotFound) {
		t.Errorf("GetField() by wrong owner error = %v, expected ErrFieldNotFound", wrongOwnerErr)
	}
	if !errors.Is(missingErr, ErrFieldNotFound) {
		t.Errorf("GetField() for missing field error = %v, expected ErrFieldNotFound", missingErr)
	}
}

func TestCreateFieldValidation(t *testing.T) {
	store := openTestStore(t)

	f := sampleField("alice")
	f.AreaHa = -1
	if _, err := store.CreateField(f); err == nil {
		t.Error("CreateField() error = nil for a negative area")
	}

	f = sampleField("")
	if _, err := store.CreateField(f); err == nil {
		t.Error("CreateField() error = nil for a missing owner")
	}
}

func TestListFields(t *testing.T) {
	store := openTestStore(t)

	for _, name := range []string{"South plot", "North plot"} {
		f := sampleField("alice")
		f.Name = name
		if _, err := store.CreateField(f); err != nil {
			t.Fatalf("CreateField() error = %v", err)
		}
	}
	if _, err := store.CreateField(sampleField("bob")); err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}

	fields, err := store.ListFields("alice")
	if err != nil {
		t.Fatalf("ListFields() error = %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("ListFields() returned %d fields, expected 2", len(fields))
	}
	if fields[0].Name != "North plot" || fields[1].Name != "South plot" {
		t.Errorf("ListFields() order = [%s, %s], expected name order", fields[0].Name, fields[1].Name)
	}
}

func TestUpdateField(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateField(sampleField("alice"))
	if err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}

	created.AreaHa = 12.5
	if _, err := store.UpdateField(created); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}
	got, err := store.GetField(created.ID, "alice")
	if err != nil {
		t.Fatalf("GetField() error = %v", err)
	}
	if got.AreaHa != 12.5 {
		t.Errorf("AreaHa = %.2f after update, expected 12.50", got.AreaHa)
	}

	// Updating as a different user fails the ownership check.
	created.OwnerID = "mallory"
	if _, err := store.UpdateField(created); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("UpdateField() by wrong owner error = %v, expected ErrFieldNotFound", err)
	}
}

func TestUpdateFieldPreservesCreatedAt(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateField(sampleField("alice"))
	if err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}
	var before FieldRecord
	if err := store.db.First(&before, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("failed to read stored record: %v", err)
	}
	if before.CreatedAt.IsZero() {
		t.Fatal("stored record has no creation timestamp")
	}

	created.Name = "Renamed plot"
	if _, err := store.UpdateField(created); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}

	var after FieldRecord
	if err := store.db.First(&after, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("failed to read stored record: %v", err)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v on update", before.CreatedAt, after.CreatedAt)
	}
	if after.Name != "Renamed plot" {
		t.Errorf("Name = %q after update, expected %q", after.Name, "Renamed plot")
	}
}

func TestSowingHistory(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateField(sampleField("alice"))
	if err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}

	// Insert out of year order; listing must return them year-ascending.
	for _, year := range []int{2025, 2023, 2024} {
		_, err := store.AddSowingRecord("alice", field.SowingRecord{
			FieldID:  created.ID,
			CropCode: "wheat",
			Year:     year,
		})
		if err != nil {
			t.Fatalf("AddSowingRecord(%d) error = %v", year, err)
		}
	}

	history, err := store.ListSowingHistory(created.ID)
	if err != nil {
		t.Fatalf("ListSowingHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("ListSowingHistory() returned %d records, expected 3", len(history))
	}
	for i, year := range []int{2023, 2024, 2025} {
		if history[i].Year != year {
			t.Errorf("history[%d].Year = %d, expected %d", i, history[i].Year, year)
		}
	}
}

func TestAddSowingRecordEnforcesOwnership(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateField(sampleField("alice"))
	if err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}

	_, err = store.AddSowingRecord("mallory", field.SowingRecord{
		FieldID:  created.ID,
		CropCode: "wheat",
		Year:     2025,
	})
	if !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("AddSowingRecord() by wrong owner error = %v, expected ErrFieldNotFound", err)
	}
}

func TestDeleteFieldCascades(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateField(sampleField("alice"))
	if err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}
	if _, err := store.AddSowingRecord("alice", field.SowingRecord{
		FieldID:  created.ID,
		CropCode: "wheat",
		Year:     2025,
	}); err != nil {
		t.Fatalf("AddSowingRecord() error = %v", err)
	}

	if err := store.DeleteField(created.ID, "mallory"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("DeleteField() by wrong owner error = %v, expected ErrFieldNotFound", err)
	}
	if err := store.DeleteField(created.ID, "alice"); err != nil {
		t.Fatalf("DeleteField() error = %v", err)
	}
	if _, err := store.GetField(created.ID, "alice"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("GetField() after delete error = %v, expected ErrFieldNotFound", err)
	}
	history, err := store.ListSowingHistory(created.ID)
	if err != nil {
		t.Fatalf("ListSowingHistory() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("ListSowingHistory() after delete returned %d records, expected 0", len(history))
	}
}
