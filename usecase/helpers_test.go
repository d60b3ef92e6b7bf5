package usecase

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "usecase.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func bogota(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	return loc
}

// barberia es un tenant con domingo cerrado y capacidad 2.
func barberia() domainTenant.Context {
	return domainTenant.Context{
		Business: domainTenant.Business{
			ID:           "biz-1",
			Name:         "Barbería El Parce",
			BusinessType: "barberia",
			IsActive:     true,
			Settings: domainTenant.Settings{
				Address:    "Calle 10 # 5-20",
				Timezone:   "America/Bogota",
				CalendarID: "cal-1",
				BusinessHours: map[string]domainTenant.DayHours{
					"tuesday": {Open: "08:00", Close: "19:00"},
					"sunday":  {Open: "closed"},
				},
				Appointment: domainTenant.AppointmentSettings{MaxConcurrent: 2},
			},
		},
		Number: domainTenant.WhatsAppNumber{PhoneNumberID: "1001", IsActive: true},
	}
}
