package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainCustomer "github.com/AzielCF/az-citas/domains/customer"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
)

type customerModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	WhatsappID string `gorm:"column:whatsapp_id;uniqueIndex;not null"`
	Name       string
	Age        *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (customerModel) TableName() string {
	return "customers"
}

type CustomerGormRepository struct {
	db *gorm.DB
}

func NewCustomerGormRepository(db *gorm.DB) *CustomerGormRepository {
	return &CustomerGormRepository{db: db}
}

func (r *CustomerGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&customerModel{})
}

func (r *CustomerGormRepository) Get(ctx context.Context, whatsappID string) (domainCustomer.Customer, error) {
	var m customerModel
	if err := r.db.WithContext(ctx).First(&m, "whatsapp_id = ?", whatsappID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainCustomer.Customer{}, pkgError.NotFoundError("customer not found")
		}
		return domainCustomer.Customer{}, err
	}
	return fromCustomerModel(m), nil
}

// Upsert inserta o actualiza por whatsapp_id. Sin edad se conserva la guardada.
func (r *CustomerGormRepository) Upsert(ctx context.Context, whatsappID, name string, age *int) (domainCustomer.Customer, error) {
	now := time.Now().UTC()
	model := customerModel{
		WhatsappID: whatsappID,
		Name:       strings.TrimSpace(name),
		Age:        age,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	updates := map[string]interface{}{"name": model.Name, "updated_at": now}
	if age != nil {
		updates["age"] = *age
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "whatsapp_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&model).Error
	if err != nil {
		return domainCustomer.Customer{}, err
	}
	return r.Get(ctx, whatsappID)
}

func fromCustomerModel(m customerModel) domainCustomer.Customer {
	return domainCustomer.Customer{
		ID:         m.ID,
		WhatsAppID: m.WhatsappID,
		Name:       m.Name,
		Age:        m.Age,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
