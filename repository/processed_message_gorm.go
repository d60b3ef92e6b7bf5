package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type processedMessageModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	MessageID   string    `gorm:"column:message_id;uniqueIndex;not null"`
	ProcessedAt time.Time `gorm:"column:processed_at;index;not null"`
}

func (processedMessageModel) TableName() string {
	return "processed_messages"
}

// ProcessedMessageGormStore is the durable marker set behind the dedup gate.
type ProcessedMessageGormStore struct {
	db *gorm.DB
}

func NewProcessedMessageGormStore(db *gorm.DB) *ProcessedMessageGormStore {
	return &ProcessedMessageGormStore{db: db}
}

func (s *ProcessedMessageGormStore) Init(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&processedMessageModel{})
}

func (s *ProcessedMessageGormStore) Seen(ctx context.Context, messageID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&processedMessageModel{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	return count > 0, err
}

// Mark usa INSERT ... ON CONFLICT DO NOTHING; la colisión no es un error.
func (s *ProcessedMessageGormStore) Mark(ctx context.Context, messageID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(&processedMessageModel{MessageID: messageID, ProcessedAt: at.UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *ProcessedMessageGormStore) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("processed_at < ?", before.UTC()).
		Delete(&processedMessageModel{})
	return res.RowsAffected, res.Error
}
