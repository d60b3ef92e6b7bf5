package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AzielCF/az-citas/ui/rest/middleware"
)

var replayCmd = &cobra.Command{
	Use:   "replay <payload.json>",
	Short: "POST a saved webhook payload to a running server",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().String("url", "", "webhook url (default http://localhost:<port>/webhook)")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	body, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = fmt.Sprintf("http://localhost:%s/webhook", cfg.App.Port)
	}

	req := resty.New().
		SetTimeout(2*time.Minute).
		R().
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if cfg.Whatsapp.AppSecret != "" {
		req.SetHeader(middleware.SignatureHeader, middleware.Sign(cfg.Whatsapp.AppSecret, body))
	}

	resp, err := req.Post(url)
	if err != nil {
		return fmt.Errorf("failed to post payload: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"status": resp.StatusCode(),
		"url":    url,
	}).Info("[REPLAY] Payload delivered")
	fmt.Println(resp.String())
	return nil
}
