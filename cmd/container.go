package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/AzielCF/az-citas/botengine/application"
	"github.com/AzielCF/az-citas/botengine/domain"
	"github.com/AzielCF/az-citas/botengine/providers"
	"github.com/AzielCF/az-citas/botengine/tools"
	coreconfig "github.com/AzielCF/az-citas/core/config"
	coreDB "github.com/AzielCF/az-citas/core/database"
	domainCalendar "github.com/AzielCF/az-citas/domains/calendar"
	domainDedup "github.com/AzielCF/az-citas/domains/dedup"
	domainDelivery "github.com/AzielCF/az-citas/domains/delivery"
	domainHealth "github.com/AzielCF/az-citas/domains/health"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	domainWebhook "github.com/AzielCF/az-citas/domains/webhook"
	"github.com/AzielCF/az-citas/infrastructure/calendar"
	"github.com/AzielCF/az-citas/infrastructure/valkey"
	"github.com/AzielCF/az-citas/infrastructure/whatsapp"
	"github.com/AzielCF/az-citas/pkg/botmonitor"
	"github.com/AzielCF/az-citas/pkg/crypto"
	"github.com/AzielCF/az-citas/repository"
	"github.com/AzielCF/az-citas/usecase"
)

// container agrupa todo lo que arma el proceso. Nada vive en variables globales.
type container struct {
	cfg *coreconfig.Config

	db     *gorm.DB
	valkey *valkey.Client

	tenantRepo   *repository.TenantGormRepository
	customerRepo *repository.CustomerGormRepository
	conversation *repository.ConversationGormRepository

	dedup     *usecase.DedupService
	monitor   *botmonitor.Monitor
	processor domainWebhook.IProcessor
	health    domainHealth.IHealthUsecase
	admin     domainTenant.IAdminUsecase
}

// newStorage abre base de datos y valkey y migra las tablas. Lo usan todos los comandos.
func newStorage(ctx context.Context, cfg *coreconfig.Config) (*container, error) {
	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}
	c := &container{
		cfg:          cfg,
		db:           db,
		tenantRepo:   repository.NewTenantGormRepository(db),
		customerRepo: repository.NewCustomerGormRepository(db),
		conversation: repository.NewConversationGormRepository(db),
	}
	if cfg.App.EncryptionKey != "" {
		cipher, err := crypto.NewCipher(cfg.App.EncryptionKey)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.tenantRepo.WithTokenCipher(cipher)
	} else {
		logrus.Warn("[DB] APP_ENCRYPTION_KEY is empty, per-number access tokens are stored in plain text")
	}

	if err := c.tenantRepo.Init(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to init tenant tables: %w", err)
	}
	if err := c.customerRepo.Init(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to init customer table: %w", err)
	}
	if err := c.conversation.Init(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to init conversation table: %w", err)
	}

	if cfg.Database.ValkeyEnabled {
		vk, err := valkey.NewClient(cfg.Database)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.valkey = vk
		logrus.WithField("address", cfg.Database.ValkeyAddress).Info("[VALKEY] Connected")
	}

	c.admin = usecase.NewTenantAdminService(c.tenantRepo)
	return c, nil
}

// newContainer arma el pipeline completo del webhook sobre newStorage.
func newContainer(ctx context.Context, cfg *coreconfig.Config) (*container, error) {
	c, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	durable, err := c.durableDedupStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	memory := repository.NewMemoryProcessedMessageCache(cfg.Dedup.MemoryCapacity, cfg.Dedup.MemoryTTL)
	c.dedup = usecase.NewDedupService(durable, memory, usecase.DedupOptions{
		Retention:     cfg.Dedup.DurableRetention,
		SweepInterval: cfg.Dedup.SweepInterval,
	})

	defaultCtx, err := usecase.DefaultTenantContext(cfg.Default, cfg.Whatsapp)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to build default tenant: %w", err)
	}
	resolver := usecase.NewTenantService(c.tenantRepo, defaultCtx)

	provider, err := calendarProvider(cfg.Calendar)
	if err != nil {
		c.Close()
		return nil, err
	}
	gateway := usecase.NewCalendarService(provider, c.customerRepo, usecase.CalendarOptions{
		CalendarID: cfg.Calendar.CalendarID,
		ListLimit:  cfg.Calendar.ListLimit,
		Timeout:    cfg.Calendar.RequestTimeout,
	})

	registry := tools.NewRegistry(tools.NewCalendarTools(gateway).All()...)
	agent := application.NewOrchestrator(aiProvider(cfg), registry, application.OrchestratorOptions{
		MaxIterations: cfg.AI.MaxIterations,
		ModelTimeout:  cfg.AI.RequestTimeout,
		ToolTimeout:   cfg.Calendar.RequestTimeout,
	})

	c.monitor = botmonitor.New(cfg.App.MonitorBuffer, 0)
	c.processor = usecase.NewMessageProcessor(usecase.ProcessorDeps{
		Dedup:         c.dedup,
		Tenants:       resolver,
		Conversations: c.conversation,
		Customers:     c.customerRepo,
		Prompter:      application.NewPrompter(),
		Agent:         agent,
		Sender:        sender(cfg),
		HistoryLimit:  cfg.AI.HistoryLimit,
		Monitor:       c.monitor,
	})

	c.health = usecase.NewHealthService(c.probes()...)
	return c, nil
}

// durableDedupStore: valkey si está habilitado, si no la tabla processed_messages.
func (c *container) durableDedupStore(ctx context.Context) (domainDedup.IMarkerStore, error) {
	if c.valkey != nil {
		return repository.NewValkeyProcessedMessageStore(c.valkey, c.cfg.Dedup.DurableRetention), nil
	}
	if !c.cfg.Dedup.DurableStoreGorm {
		logrus.Warn("[DEDUP] No durable store configured, duplicates survive only in memory")
		return nil, nil
	}
	store := repository.NewProcessedMessageGormStore(c.db)
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init processed_messages table: %w", err)
	}
	return store, nil
}

func (c *container) probes() []domainHealth.Probe {
	probes := []domainHealth.Probe{{
		Name: "database",
		Ping: func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if c.valkey != nil {
		probes = append(probes, domainHealth.Probe{Name: "valkey", Ping: c.valkey.Ping})
	}
	return probes
}

func calendarProvider(cfg coreconfig.CalendarConfig) (domainCalendar.IProvider, error) {
	if cfg.Provider == "memory" {
		logrus.Warn("[CALENDAR] Using in-memory calendar, bookings are not persisted")
		return calendar.NewMemoryCalendar(), nil
	}
	sa, err := calendar.LoadServiceAccount(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load google credentials: %w", err)
	}
	return calendar.NewGoogleCalendar(sa, calendar.GoogleOptions{Timeout: cfg.RequestTimeout}), nil
}

func aiProvider(cfg *coreconfig.Config) domain.AIProvider {
	if cfg.AI.Provider == "gemini" {
		return providers.NewGeminiProvider(cfg.APIKeys.Gemini, cfg.AI.Model)
	}
	return providers.NewOpenAIProvider(cfg.APIKeys.OpenAI, cfg.AI.Model)
}

func sender(cfg *coreconfig.Config) domainDelivery.ISender {
	if cfg.App.MockMode {
		logrus.Warn("[WHATSAPP] Mock mode: outbound messages are only logged")
		return whatsapp.NewMockSender()
	}
	return whatsapp.NewCloudSender(cfg.Whatsapp)
}

func (c *container) Close() {
	if c.dedup != nil {
		c.dedup.Stop()
	}
	if c.valkey != nil {
		c.valkey.Close()
	}
	if err := coreDB.Close(c.db); err != nil {
		logrus.WithError(err).Error("[DB] Failed to close database")
	}
}
