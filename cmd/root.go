package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	globalConfig "github.com/AzielCF/az-citas/config"
	coreconfig "github.com/AzielCF/az-citas/core/config"
	"github.com/AzielCF/az-citas/pkg/utils"
)

var (
	cfg *coreconfig.Config

	flagPort  string
	flagDebug bool
	flagMock  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     globalConfig.AppName,
	Short:   "Multi-tenant WhatsApp appointment assistant",
	Long:    `Receives WhatsApp Cloud API webhooks, runs the booking assistant for the business bound to the number and replies through the Graph API.`,
	Version: globalConfig.AppVersion,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&flagPort, "port", "p", "", "change port number with --port <number> | example: --port=8080")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug logging | example: --debug=true")
	rootCmd.PersistentFlags().BoolVarP(&flagMock, "mock", "", false, "log outbound messages instead of calling the Graph API | example: --mock=true")

	cobra.OnInitialize(initEnvConfig)
}

// initEnvConfig carga la configuración tipada y aplica los flags encima.
func initEnvConfig() {
	loaded, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] Failed to load configuration: %v", err)
	}

	if flagPort != "" {
		loaded.App.Port = flagPort
	}
	if flagDebug {
		loaded.App.Debug = true
	}
	if flagMock {
		loaded.App.MockMode = true
		if os.Getenv("CALENDAR_PROVIDER") == "" {
			loaded.Calendar.Provider = "memory"
		}
	}

	if loaded.App.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if loaded.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.WithFields(logrus.Fields(loaded.Summary())).Debug("[CONFIG] Configuration loaded")
	cfg = loaded
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
