package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/AzielCF/az-citas/core/config"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	"github.com/AzielCF/az-citas/pkg/textutil"
)

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type graphError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// CloudSender entrega respuestas por la WhatsApp Cloud API.
// Un limitador por phone_number_id evita superar el throughput del proveedor.
type CloudSender struct {
	http *resty.Client
	cfg  config.WhatsappConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewCloudSender(cfg config.WhatsappConfig) *CloudSender {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.GraphBaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &CloudSender{
		http:     client,
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *CloudSender) limiter(phoneNumberID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[phoneNumberID]
	if !ok {
		limit := rate.Inf
		if s.cfg.SendRate > 0 {
			limit = rate.Limit(s.cfg.SendRate)
		}
		burst := s.cfg.SendBurst
		if burst <= 0 {
			burst = 1
		}
		l = rate.NewLimiter(limit, burst)
		s.limiters[phoneNumberID] = l
	}
	return l
}

// Send posts one text message. There is no retry: failures are returned to the caller to log.
func (s *CloudSender) Send(ctx context.Context, tc domainTenant.Context, to, text string) error {
	phoneNumberID := firstNonEmpty(tc.Number.PhoneNumberID, s.cfg.PhoneNumberID)
	token := firstNonEmpty(tc.Number.AccessToken, s.cfg.AccessToken)
	version := firstNonEmpty(tc.Number.APIVersion, s.cfg.APIVersion)
	if phoneNumberID == "" || token == "" || version == "" {
		return fmt.Errorf("missing whatsapp credentials (phone_number_id=%q)", phoneNumberID)
	}

	if err := s.limiter(phoneNumberID).Wait(ctx); err != nil {
		return fmt.Errorf("send rate limiter: %w", err)
	}

	msg := textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               textutil.Recipient(to),
		Type:             "text",
		Text:             textBody{PreviewURL: false, Body: textutil.ForWhatsApp(text)},
	}

	var failure graphError
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParams(map[string]string{"version": version, "phoneNumberID": phoneNumberID}).
		SetBody(msg).
		SetError(&failure).
		Post("/{version}/{phoneNumberID}/messages")
	if err != nil {
		return fmt.Errorf("whatsapp send failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("whatsapp send rejected (%d): %s", resp.StatusCode(), failure.Error.Message)
	}

	logrus.WithFields(logrus.Fields{
		"phone_number_id": phoneNumberID,
		"to":              msg.To,
		"status":          resp.StatusCode(),
	}).Info("[WHATSAPP] Message sent")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
