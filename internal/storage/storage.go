// Package storage implements the persistence store for fields and sowing
// records over an embedded SQLite database. The engine consumes it through
// read-only lookups; all mutation happens on behalf of the owning user.
package storage

import (
	"errors"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/field"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrFieldNotFound is returned when a field does not exist or is not owned
// by the requesting user. The two cases are deliberately indistinguishable.
var ErrFieldNotFound = errors.New("field not found")

// FieldRecord is the persisted form of a field.
type FieldRecord struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"index"`
	Name      string
	AreaHa    float64
	Soil      string
	RentEurHa float64
	PH        *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of struct renames.
func (FieldRecord) TableName() string { return "fields" }

// SowingRow is the persisted form of a sowing record.
type SowingRow struct {
	ID        string `gorm:"primaryKey"`
	FieldID   string `gorm:"index"`
	CropCode  string
	Year      int
	YieldTHa  *float64
	ProfitEur *float64
	CreatedAt time.Time
}

// TableName keeps the table name stable regardless of struct renames.
func (SowingRow) TableName() string { return "sowing_records" }

// Store wraps the gorm handle.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the SQLite database at path and migrates the
// schema. If zl is nil, it will use a no-op logger to prevent panics.
func Open(path string, zl *zap.Logger) (*Store, error) {
	if zl == nil {
		zl = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&FieldRecord{}, &SowingRow{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	zl.Debug("storage opened", zap.String("op", "storage.Open"), zap.String("path", path))
	return &Store{db: db, logger: zl}, nil
}

// CreateField persists a new field for its owner, assigning an ID when none
// is set. The field is validated before it is written.
func (s *Store) CreateField(f field.Field) (field.Field, error) {
	if f.OwnerID == "" {
		return field.Field{}, fmt.Errorf("field owner is required")
	}
	if err := f.Validate(); err != nil {
		return field.Field{}, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	rec := toFieldRecord(f)
	if err := s.db.Create(&rec).Error; err != nil {
		return field.Field{}, fmt.Errorf("create field: %w", err)
	}
	return f, nil
}

// GetField returns the field with the given ID if it is owned by ownerID.
// Ownership is part of the lookup key: a field is visible only to its owner.
func (s *Store) GetField(id, ownerID string) (field.Field, error) {
	var rec FieldRecord
	err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return field.Field{}, ErrFieldNotFound
	}
	if err != nil {
		return field.Field{}, fmt.Errorf("get field: %w", err)
	}
	return fromFieldRecord(rec), nil
}

// ListFields returns all fields owned by ownerID, ordered by name.
func (s *Store) ListFields(ownerID string) ([]field.Field, error) {
	var recs []FieldRecord
	if err := s.db.Where("owner_id = ?", ownerID).Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	fields := make([]field.Field, 0, len(recs))
	for _, rec := range recs {
		fields = append(fields, fromFieldRecord(rec))
	}
	return fields, nil
}

// UpdateField rewrites a field's mutable attributes, enforcing ownership.
// The creation timestamp is never touched.
func (s *Store) UpdateField(f field.Field) (field.Field, error) {
	if err := f.Validate(); err != nil {
		return field.Field{}, err
	}
	if _, err := s.GetField(f.ID, f.OwnerID); err != nil {
		return field.Field{}, err
	}
	updates := map[string]interface{}{
		"name":        f.Name,
		"area_ha":     f.AreaHa,
		"soil":        string(f.Soil),
		"rent_eur_ha": f.RentEurHa,
		"ph":          f.PH,
	}
	err := s.db.Model(&FieldRecord{}).
		Where("id = ? AND owner_id = ?", f.ID, f.OwnerID).
		Updates(updates).Error
	if err != nil {
		return field.Field{}, fmt.Errorf("update field: %w", err)
	}
	return f, nil
}

// DeleteField removes a field and its sowing history, enforcing ownership.
func (s *Store) DeleteField(id, ownerID string) error {
	if _, err := s.GetField(id, ownerID); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("field_id = ?", id).Delete(&SowingRow{}).Error; err != nil {
			return fmt.Errorf("delete sowing history: %w", err)
		}
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&FieldRecord{}).Error; err != nil {
			return fmt.Errorf("delete field: %w", err)
		}
		return nil
	})
}

// AddSowingRecord appends one season to a field's rotation history. The
// caller must own the field.
func (s *Store) AddSowingRecord(ownerID string, rec field.SowingRecord) (field.SowingRecord, error) {
	if _, err := s.GetField(rec.FieldID, ownerID); err != nil {
		return field.SowingRecord{}, err
	}
	if rec.CropCode == "" {
		return field.SowingRecord{}, fmt.Errorf("sowing record crop code is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := SowingRow{
		ID:        rec.ID,
		FieldID:   rec.FieldID,
		CropCode:  rec.CropCode,
		Year:      rec.Year,
		YieldTHa:  rec.YieldTHa,
		ProfitEur: rec.ProfitEur,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return field.SowingRecord{}, fmt.Errorf("create sowing record: %w", err)
	}
	return rec, nil
}

// ListSowingHistory returns a field's sowing records ordered by year, most
// recent last.
func (s *Store) ListSowingHistory(fieldID string) ([]field.SowingRecord, error) {
	var rows []SowingRow
	if err := s.db.Where("field_id = ?", fieldID).Order("year").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sowing history: %w", err)
	}
	history := make([]field.SowingRecord, 0, len(rows))
	for _, row := range rows {
		history = append(history, field.SowingRecord{
			ID:        row.ID,
			FieldID:   row.FieldID,
			CropCode:  row.CropCode,
			Year:      row.Year,
			YieldTHa:  row.YieldTHa,
			ProfitEur: row.ProfitEur,
		})
	}
	return history, nil
}

func toFieldRecord(f field.Field) FieldRecord {
	return FieldRecord{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Name:      f.Name,
		AreaHa:    f.AreaHa,
		Soil:      string(f.Soil),
		RentEurHa: f.RentEurHa,
		PH:        f.PH,
	}
}

func fromFieldRecord(rec FieldRecord) field.Field {
	return field.Field{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		Name:      rec.Name,
		AreaHa:    rec.AreaHa,
		Soil:      catalog.SoilType(rec.Soil),
		RentEurHa: rec.RentEurHa,
		PH:        rec.PH,
	}
}
