package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domainConversation "github.com/AzielCF/az-citas/domains/conversation"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	"github.com/AzielCF/az-citas/pkg/crypto"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestTenantGormRepository_FindByPhoneNumberID(t *testing.T) {
	ctx := context.Background()
	repo := NewTenantGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	b, err := repo.CreateBusiness(ctx, domainTenant.Business{
		Name:     "Barbería El Corte",
		IsActive: true,
		Settings: domainTenant.Settings{
			Address:     "Calle 10 #5-20",
			Appointment: domainTenant.AppointmentSettings{MaxConcurrent: 3},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, domainTenant.DefaultBusinessType, b.BusinessType)

	_, err = repo.BindNumber(ctx, domainTenant.WhatsAppNumber{
		BusinessID:    b.ID,
		PhoneNumberID: "PNID-1",
		PhoneNumber:   "+573001112233",
		IsActive:      true,
	})
	require.NoError(t, err)

	got, number, err := repo.FindByPhoneNumberID(ctx, "PNID-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "PNID-1", number.PhoneNumberID)
	assert.Equal(t, 3, got.Settings.MaxConcurrent())
	assert.Equal(t, "Calle 10 #5-20", got.Settings.Address)

	// numero desconocido
	_, _, err = repo.FindByPhoneNumberID(ctx, "PNID-unknown")
	var nf pkgError.NotFoundError
	assert.ErrorAs(t, err, &nf)

	// negocio desactivado ya no resuelve
	require.NoError(t, repo.SetBusinessActive(ctx, b.ID, false))
	_, _, err = repo.FindByPhoneNumberID(ctx, "PNID-1")
	assert.ErrorAs(t, err, &nf)
}

func TestTenantGormRepository_BindNumberIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewTenantGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	b, err := repo.CreateBusiness(ctx, domainTenant.Business{Name: "Salon", IsActive: true})
	require.NoError(t, err)

	_, err = repo.BindNumber(ctx, domainTenant.WhatsAppNumber{BusinessID: b.ID, PhoneNumberID: "X", IsActive: true})
	require.NoError(t, err)
	_, err = repo.BindNumber(ctx, domainTenant.WhatsAppNumber{BusinessID: b.ID, PhoneNumberID: "X", IsActive: true})
	assert.Error(t, err)
}

func TestTenantGormRepository_EncryptsAccessToken(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c, err := crypto.NewCipher("test-key")
	require.NoError(t, err)
	repo := NewTenantGormRepository(db).WithTokenCipher(c)
	require.NoError(t, repo.Init(ctx))

	b, err := repo.CreateBusiness(ctx, domainTenant.Business{Name: "Spa", IsActive: true})
	require.NoError(t, err)
	_, err = repo.BindNumber(ctx, domainTenant.WhatsAppNumber{BusinessID: b.ID, PhoneNumberID: "PN-9", AccessToken: "EAAG-secret", IsActive: true})
	require.NoError(t, err)

	var stored whatsappNumberModel
	require.NoError(t, db.First(&stored, "phone_number_id = ?", "PN-9").Error)
	assert.NotContains(t, stored.AccessToken, "EAAG-secret")

	_, number, err := repo.FindByPhoneNumberID(ctx, "PN-9")
	require.NoError(t, err)
	assert.Equal(t, "EAAG-secret", number.AccessToken)

	// sin clave no se puede leer un token cifrado
	_, _, err = NewTenantGormRepository(db).FindByPhoneNumberID(ctx, "PN-9")
	assert.Error(t, err)
}

func TestConversationGormRepository_ReadRecentIsBounded(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	// reloj fijo: todos los turnos comparten timestamp y el id desempata
	fixed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	for i := 0; i < 25; i++ {
		role := domainConversation.RoleUser
		if i%2 == 1 {
			role = domainConversation.RoleAssistant
		}
		require.NoError(t, repo.Append(ctx, "biz-1", "573001112233", role, string(rune('a'+i))))
	}
	require.NoError(t, repo.Append(ctx, "biz-2", "573001112233", domainConversation.RoleUser, "otro negocio"))

	turns, err := repo.ReadRecent(ctx, "biz-1", "573001112233", 10)
	require.NoError(t, err)
	require.Len(t, turns, 10)
	assert.Equal(t, string(rune('a'+15)), turns[0].Text)
	assert.Equal(t, string(rune('a'+24)), turns[9].Text)
	for i := 1; i < len(turns); i++ {
		assert.Less(t, turns[i-1].ID, turns[i].ID)
	}

	turns, err = repo.ReadRecent(ctx, "biz-2", "573001112233", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "otro negocio", turns[0].Text)
}

func TestConversationGormRepository_OrderSurvivesClockStepBack(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	// el reloj retrocede una hora entre escrituras
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		now := clock
		clock = clock.Add(-time.Hour)
		return now
	}

	for _, text := range []string{"primero", "segundo", "tercero"} {
		require.NoError(t, repo.Append(ctx, "biz-1", "573001112233", domainConversation.RoleUser, text))
	}

	turns, err := repo.ReadRecent(ctx, "biz-1", "573001112233", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "segundo", turns[0].Text)
	assert.Equal(t, "tercero", turns[1].Text)
}

func TestConversationGormRepository_DefaultContext(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.Append(ctx, "", "573009998877", domainConversation.RoleUser, "hola"))
	turns, err := repo.ReadRecent(ctx, "", "573009998877", 5)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Empty(t, turns[0].BusinessID)
}

func TestCustomerGormRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	age := 31
	c, err := repo.Upsert(ctx, "573001112233", "Juan", &age)
	require.NoError(t, err)
	assert.Equal(t, "Juan", c.Name)
	require.NotNil(t, c.Age)
	assert.Equal(t, 31, *c.Age)

	// sin edad se conserva la anterior
	c, err = repo.Upsert(ctx, "573001112233", "Juan Pérez", nil)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", c.Name)
	require.NotNil(t, c.Age)
	assert.Equal(t, 31, *c.Age)

	_, err = repo.Get(ctx, "nobody")
	var nf pkgError.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestProcessedMessageGormStore_MarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewProcessedMessageGormStore(newTestDB(t))
	require.NoError(t, store.Init(ctx))

	now := time.Now()
	inserted, err := store.Mark(ctx, "wamid.1", now)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.Mark(ctx, "wamid.1", now)
	require.NoError(t, err)
	assert.False(t, inserted)

	seen, err := store.Seen(ctx, "wamid.1")
	require.NoError(t, err)
	assert.True(t, seen)

	_, err = store.Mark(ctx, "wamid.old", now.Add(-8*24*time.Hour))
	require.NoError(t, err)
	removed, err := store.Cleanup(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	seen, err = store.Seen(ctx, "wamid.old")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryProcessedMessageCache(t *testing.T) {
	t.Run("evicts least recently used", func(t *testing.T) {
		c := NewMemoryProcessedMessageCache(2, time.Hour)
		assert.False(t, c.AddIfAbsent("a"))
		assert.False(t, c.AddIfAbsent("b"))
		assert.True(t, c.Contains("a"))
		assert.False(t, c.AddIfAbsent("c"))

		assert.Equal(t, 2, c.Len())
		assert.True(t, c.Contains("a"))
		assert.False(t, c.Contains("b"))
	})

	t.Run("expires entries", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		c := NewMemoryProcessedMessageCache(10, time.Minute)
		c.now = func() time.Time { return now }

		c.AddIfAbsent("a")
		c.AddIfAbsent("b")
		now = now.Add(2 * time.Minute)

		assert.False(t, c.Contains("a"))
		assert.Equal(t, 1, c.Sweep())
		assert.Equal(t, 0, c.Len())
		assert.False(t, c.AddIfAbsent("b"))
	})
}
