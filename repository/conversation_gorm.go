package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainConversation "github.com/AzielCF/az-citas/domains/conversation"
)

type conversationModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	BusinessID *string   `gorm:"column:business_id;size:36;index:idx_conversation_lookup,priority:1"`
	WhatsappID string    `gorm:"column:whatsapp_id;not null;index:idx_conversation_lookup,priority:2"`
	Role       string    `gorm:"size:16;not null"`
	Message    string    `gorm:"type:text;not null"`
	Timestamp  time.Time `gorm:"not null;index:idx_conversation_lookup,priority:3"`
}

func (conversationModel) TableName() string {
	return "conversations"
}

// ConversationGormRepository is the append-only conversation log.
type ConversationGormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewConversationGormRepository(db *gorm.DB) *ConversationGormRepository {
	return &ConversationGormRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *ConversationGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&conversationModel{})
}

func (r *ConversationGormRepository) Append(ctx context.Context, businessID, endUser string, role domainConversation.Role, text string) error {
	model := conversationModel{
		BusinessID: nullableID(businessID),
		WhatsappID: endUser,
		Role:       string(role),
		Message:    text,
		Timestamp:  r.now(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ReadRecent lee los últimos `limit` turnos y los devuelve del más antiguo al más nuevo.
func (r *ConversationGormRepository) ReadRecent(ctx context.Context, businessID, endUser string, limit int) ([]domainConversation.Turn, error) {
	if limit <= 0 {
		limit = domainConversation.DefaultHistoryLimit
	}

	q := r.db.WithContext(ctx).Where("whatsapp_id = ?", endUser)
	if businessID == "" {
		q = q.Where("business_id IS NULL")
	} else {
		q = q.Where("business_id = ?", businessID)
	}

	var models []conversationModel
	err := q.Order("id DESC").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, err
	}

	turns := make([]domainConversation.Turn, len(models))
	for i, m := range models {
		turns[len(models)-1-i] = fromConversationModel(m)
	}
	return turns, nil
}

func fromConversationModel(m conversationModel) domainConversation.Turn {
	t := domainConversation.Turn{
		ID:        m.ID,
		EndUser:   m.WhatsappID,
		Role:      domainConversation.Role(m.Role),
		Text:      m.Message,
		Timestamp: m.Timestamp,
	}
	if m.BusinessID != nil {
		t.BusinessID = *m.BusinessID
	}
	return t
}

// El contexto por defecto no tiene negocio en base de datos.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
