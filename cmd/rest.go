package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	globalConfig "github.com/AzielCF/az-citas/config"
	"github.com/AzielCF/az-citas/pkg/msgworker"
	"github.com/AzielCF/az-citas/ui/rest"
	"github.com/AzielCF/az-citas/ui/rest/middleware"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the WhatsApp webhook over http",
	Run:   restServer,
}

func init() {
	restCmd.Flags().Bool("async", false, "acknowledge webhooks after dedup and run turns in the worker pool")
	rootCmd.AddCommand(restCmd)
}

func restServer(cmd *cobra.Command, _ []string) {
	if async, _ := cmd.Flags().GetBool("async"); async {
		cfg.Webhook.Async = true
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := newContainer(ctx, cfg)
	if err != nil {
		logrus.Fatalf("[APP] Failed to initialize: %v", err)
	}
	c.dedup.Start(ctx)

	var pool *msgworker.Pool
	if cfg.Webhook.Async {
		pool = msgworker.NewPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
		pool.Start(ctx)
	}

	fiberConfig := fiber.Config{
		AppName:               globalConfig.AppName + " " + globalConfig.AppVersion,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: !cfg.App.Debug,
		ServerHeader:          "Hidden",
		Network:               "tcp",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.EnableTrustedProxyCheck = true
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedFor
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID, " + middleware.SignatureHeader,
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	rest.InitRestWebhook(app, c.processor, rest.WebhookOptions{
		VerifyToken: cfg.Whatsapp.VerifyToken,
		AppSecret:   cfg.Whatsapp.AppSecret,
		MockMode:    cfg.App.MockMode,
		Pool:        pool,
	})
	rest.InitRestHealth(app, c.health)
	rest.InitRestWorkerPool(app, pool)
	rest.InitRestMonitor(app, c.monitor)

	if cfg.Whatsapp.AppSecret == "" {
		logrus.Warn("[REST] WHATSAPP_APP_SECRET is empty, webhook signatures are not verified")
	}

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":  cfg.App.Port,
		"async": cfg.Webhook.Async,
		"mock":  cfg.App.MockMode,
	}).Info("[REST] Starting server")

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Errorf("[REST] Failed to start: %v", err)
	}

	// los turnos en cola terminan antes de cerrar la base de datos
	if pool != nil {
		pool.Stop()
	}
	cancel()
	c.Close()
	logrus.Info("[APP] Application stopped cleanly.")
}
