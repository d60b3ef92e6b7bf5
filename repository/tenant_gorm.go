package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	"github.com/AzielCF/az-citas/pkg/crypto"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
)

// businessModel es el modelo de persistencia de un negocio.
// Settings se guarda como documento JSON en texto para funcionar igual en sqlite y postgres.
type businessModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"not null"`
	BusinessType string `gorm:"column:business_type;not null;default:barberia"`
	Settings     string `gorm:"type:text"`
	IsActive     bool   `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (businessModel) TableName() string {
	return "businesses"
}

type whatsappNumberModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	BusinessID    string `gorm:"column:business_id;index;not null"`
	PhoneNumberID string `gorm:"column:phone_number_id;uniqueIndex;not null"`
	PhoneNumber   string `gorm:"column:phone_number"`
	AccessToken   string `gorm:"column:access_token"`
	APIVersion    string `gorm:"column:api_version"`
	IsActive      bool   `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (whatsappNumberModel) TableName() string {
	return "whatsapp_numbers"
}

// TenantGormRepository implementa domainTenant.IRepository usando GORM.
type TenantGormRepository struct {
	db     *gorm.DB
	tokens *crypto.Cipher
}

func NewTenantGormRepository(db *gorm.DB) *TenantGormRepository {
	return &TenantGormRepository{db: db}
}

// WithTokenCipher cifra los access_token por número antes de guardarlos.
func (r *TenantGormRepository) WithTokenCipher(c *crypto.Cipher) *TenantGormRepository {
	r.tokens = c
	return r
}

func (r *TenantGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&businessModel{}, &whatsappNumberModel{})
}

// FindByPhoneNumberID resuelve un número activo y su negocio activo.
func (r *TenantGormRepository) FindByPhoneNumberID(ctx context.Context, phoneNumberID string) (domainTenant.Business, domainTenant.WhatsAppNumber, error) {
	var number whatsappNumberModel
	err := r.db.WithContext(ctx).
		Where("phone_number_id = ? AND is_active = ?", phoneNumberID, true).
		First(&number).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainTenant.Business{}, domainTenant.WhatsAppNumber{}, pkgError.NotFoundError("whatsapp number not found")
		}
		return domainTenant.Business{}, domainTenant.WhatsAppNumber{}, err
	}

	var business businessModel
	err = r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", number.BusinessID, true).
		First(&business).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainTenant.Business{}, domainTenant.WhatsAppNumber{}, pkgError.NotFoundError("business not found or inactive")
		}
		return domainTenant.Business{}, domainTenant.WhatsAppNumber{}, err
	}

	n, err := r.fromNumberModel(number)
	if err != nil {
		return domainTenant.Business{}, domainTenant.WhatsAppNumber{}, err
	}
	return fromBusinessModel(business), n, nil
}

func (r *TenantGormRepository) CreateBusiness(ctx context.Context, b domainTenant.Business) (domainTenant.Business, error) {
	if strings.TrimSpace(b.ID) == "" {
		b.ID = uuid.NewString()
	}
	model, err := toBusinessModel(b)
	if err != nil {
		return domainTenant.Business{}, err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainTenant.Business{}, err
	}
	return fromBusinessModel(model), nil
}

func (r *TenantGormRepository) GetBusiness(ctx context.Context, id string) (domainTenant.Business, error) {
	var model businessModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainTenant.Business{}, pkgError.NotFoundError("business not found")
		}
		return domainTenant.Business{}, err
	}
	return fromBusinessModel(model), nil
}

func (r *TenantGormRepository) ListBusinesses(ctx context.Context) ([]domainTenant.Business, error) {
	var models []businessModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]domainTenant.Business, 0, len(models))
	for _, m := range models {
		result = append(result, fromBusinessModel(m))
	}
	return result, nil
}

// SetBusinessActive es el único "borrado" soportado.
func (r *TenantGormRepository) SetBusinessActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&businessModel{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError("business not found")
	}
	return nil
}

func (r *TenantGormRepository) BindNumber(ctx context.Context, n domainTenant.WhatsAppNumber) (domainTenant.WhatsAppNumber, error) {
	if strings.TrimSpace(n.ID) == "" {
		n.ID = uuid.NewString()
	}
	model, err := r.toNumberModel(n)
	if err != nil {
		return domainTenant.WhatsAppNumber{}, err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainTenant.WhatsAppNumber{}, err
	}
	return r.fromNumberModel(model)
}

func toBusinessModel(b domainTenant.Business) (businessModel, error) {
	raw, err := json.Marshal(b.Settings)
	if err != nil {
		return businessModel{}, fmt.Errorf("failed to encode settings: %w", err)
	}
	businessType := b.BusinessType
	if businessType == "" {
		businessType = domainTenant.DefaultBusinessType
	}
	return businessModel{
		ID:           b.ID,
		Name:         b.Name,
		BusinessType: businessType,
		Settings:     string(raw),
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}, nil
}

// fromBusinessModel nunca descarta el negocio: un documento de settings que no
// decodifica se registra y se reemplaza por settings vacíos (aplican los defaults).
func fromBusinessModel(m businessModel) domainTenant.Business {
	settings, err := domainTenant.ParseSettings([]byte(m.Settings))
	if err != nil {
		logrus.WithError(err).WithField("business_id", m.ID).Error("[TENANT] Invalid settings document, using defaults")
		settings = domainTenant.Settings{}
	}
	return domainTenant.Business{
		ID:           m.ID,
		Name:         m.Name,
		BusinessType: m.BusinessType,
		Settings:     settings,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (r *TenantGormRepository) toNumberModel(n domainTenant.WhatsAppNumber) (whatsappNumberModel, error) {
	token, err := r.tokens.Encrypt(n.AccessToken)
	if err != nil {
		return whatsappNumberModel{}, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	return whatsappNumberModel{
		ID:            n.ID,
		BusinessID:    n.BusinessID,
		PhoneNumberID: strings.TrimSpace(n.PhoneNumberID),
		PhoneNumber:   n.PhoneNumber,
		AccessToken:   token,
		APIVersion:    n.APIVersion,
		IsActive:      n.IsActive,
	}, nil
}

func (r *TenantGormRepository) fromNumberModel(m whatsappNumberModel) (domainTenant.WhatsAppNumber, error) {
	token, err := r.tokens.Decrypt(m.AccessToken)
	if err != nil {
		return domainTenant.WhatsAppNumber{}, fmt.Errorf("number %s: failed to decrypt access token: %w", m.PhoneNumberID, err)
	}
	return domainTenant.WhatsAppNumber{
		ID:            m.ID,
		BusinessID:    m.BusinessID,
		PhoneNumberID: m.PhoneNumberID,
		PhoneNumber:   m.PhoneNumber,
		AccessToken:   token,
		APIVersion:    m.APIVersion,
		IsActive:      m.IsActive,
	}, nil
}
