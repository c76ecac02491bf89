package services

import (
	"time"

	"chalk-table-service/models"

	"gorm.io/gorm"
)

// HistoryRepo is the append-only finished-game log. The engine only ever
// appends and reads back by time window; the storage technology behind it is
// interchangeable as long as appends are atomic.
type HistoryRepo interface {
	Append(rec *models.GameRecord) error
	// ListBetween returns records for a table with EndedAt in [from, to),
	// ordered by EndedAt ascending.
	ListBetween(tableID string, from, to time.Time) ([]models.GameRecord, error)
	// ListRecent returns the latest records for a table, newest first.
	ListRecent(tableID string, limit int) ([]models.GameRecord, error)
}

// GormHistoryRepo is the production HistoryRepo backed by Postgres.
type GormHistoryRepo struct {
	DB *gorm.DB
}

func NewGormHistoryRepo(db *gorm.DB) *GormHistoryRepo {
	return &GormHistoryRepo{DB: db}
}

func (r *GormHistoryRepo) Append(rec *models.GameRecord) error {
	rec.EncodePlayers()
	return r.DB.Create(rec).Error
}

func (r *GormHistoryRepo) ListBetween(tableID string, from, to time.Time) ([]models.GameRecord, error) {
	var recs []models.GameRecord
	err := r.DB.
		Where("table_id = ? AND ended_at >= ? AND ended_at < ?", tableID, from, to).
		Order("ended_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].DecodePlayers()
	}
	return recs, nil
}

func (r *GormHistoryRepo) ListRecent(tableID string, limit int) ([]models.GameRecord, error) {
	var recs []models.GameRecord
	err := r.DB.
		Where("table_id = ?", tableID).
		Order("ended_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].DecodePlayers()
	}
	return recs, nil
}
