package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainHealth "github.com/AzielCF/az-citas/domains/health"
	domainWebhook "github.com/AzielCF/az-citas/domains/webhook"
	"github.com/AzielCF/az-citas/pkg/msgworker"
	"github.com/AzielCF/az-citas/ui/rest/middleware"
)

const textPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550001111", "phone_number_id": "1001"},
        "contacts": [{"wa_id": "573001112233", "profile": {"name": "Juan"}}],
        "messages": [{"from": "573001112233", "id": "wamid.ABC", "timestamp": "1760000000", "type": "text", "text": {"body": "hola"}}]
      }
    }]
  }]
}`

const statusPayload = `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"1001"},"statuses":[{"id":"wamid.ABC","status":"delivered"}]}}]}]}`

type fakeProcessor struct {
	mu        sync.Mutex
	seen      map[string]bool
	processed []domainWebhook.InboundMessage
	done      chan struct{}
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{seen: map[string]bool{}, done: make(chan struct{}, 10)}
}

func (f *fakeProcessor) Admit(_ context.Context, in domainWebhook.InboundMessage) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	dup := f.seen[in.MessageID]
	f.seen[in.MessageID] = true
	return dup
}

func (f *fakeProcessor) Process(_ context.Context, in domainWebhook.InboundMessage) domainWebhook.Result {
	f.mu.Lock()
	f.processed = append(f.processed, in)
	f.mu.Unlock()
	f.done <- struct{}{}
	return domainWebhook.Result{Reply: "hola!", Delivered: true}
}

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.processed)
}

func newWebhookApp(p domainWebhook.IProcessor, opts WebhookOptions) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	InitRestWebhook(app, p, opts)
	return app
}

func post(t *testing.T, app *fiber.App, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestWebhook_ProcessesTextMessage(t *testing.T) {
	p := newFakeProcessor()
	app := newWebhookApp(p, WebhookOptions{VerifyToken: "tok"})

	status, body := post(t, app, textPayload, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["delivered"])

	require.Equal(t, 1, p.count())
	in := p.processed[0]
	assert.Equal(t, "wamid.ABC", in.MessageID)
	assert.Equal(t, "573001112233", in.From)
	assert.Equal(t, "Juan", in.ProfileName)
	assert.Equal(t, "1001", in.RoutingKey)
}

func TestWebhook_DuplicateShortCircuits(t *testing.T) {
	p := newFakeProcessor()
	app := newWebhookApp(p, WebhookOptions{})

	_, _ = post(t, app, textPayload, nil)
	status, body := post(t, app, textPayload, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["duplicate"])
	assert.Equal(t, 1, p.count())
}

func TestWebhook_StatusAndMalformed(t *testing.T) {
	p := newFakeProcessor()
	app := newWebhookApp(p, WebhookOptions{})

	status, body := post(t, app, statusPayload, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "ok"}, body)

	status, _ = post(t, app, `{"object":`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(t, app, `{"object":"whatsapp_business_account","entry":[]}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Zero(t, p.count())
}

func TestWebhook_Signature(t *testing.T) {
	p := newFakeProcessor()
	app := newWebhookApp(p, WebhookOptions{AppSecret: "s3cret"})

	status, _ := post(t, app, textPayload, map[string]string{middleware.SignatureHeader: "sha256=deadbeef"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = post(t, app, textPayload, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Zero(t, p.count())

	status, _ = post(t, app, textPayload, map[string]string{middleware.SignatureHeader: middleware.Sign("s3cret", []byte(textPayload))})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, p.count())

	// en modo mock la firma no se revisa
	mock := newWebhookApp(newFakeProcessor(), WebhookOptions{AppSecret: "s3cret", MockMode: true})
	status, _ = post(t, mock, textPayload, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestWebhook_AsyncDispatch(t *testing.T) {
	pool := msgworker.NewPool(2, 10)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	p := newFakeProcessor()
	app := newWebhookApp(p, WebhookOptions{Pool: pool})

	status, body := post(t, app, textPayload, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["queued"])

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	assert.Equal(t, 1, p.count())
}

func TestWebhook_Verify(t *testing.T) {
	app := newWebhookApp(newFakeProcessor(), WebhookOptions{VerifyToken: "tok"})

	cases := []struct {
		query  string
		status int
		body   string
	}{
		{"?hub.mode=subscribe&hub.verify_token=tok&hub.challenge=42", http.StatusOK, "42"},
		{"?hub.mode=subscribe&hub.verify_token=bad&hub.challenge=42", http.StatusForbidden, ""},
		{"?hub.mode=unsubscribe&hub.verify_token=tok&hub.challenge=42", http.StatusForbidden, ""},
		{"?hub.mode=subscribe", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/webhook"+tc.query, nil))
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode, tc.query)
		if tc.body != "" {
			assert.Equal(t, tc.body, string(raw))
		}
	}
}

type fakeHealth struct{ healthy bool }

func (f fakeHealth) CheckAll(context.Context) ([]domainHealth.HealthRecord, bool) {
	status := domainHealth.StatusOk
	if !f.healthy {
		status = domainHealth.StatusError
	}
	return []domainHealth.HealthRecord{{Component: "database", Status: status}}, f.healthy
}

func TestHealth(t *testing.T) {
	app := fiber.New()
	InitRestHealth(app, fakeHealth{healthy: false})
	InitRestWorkerPool(app, nil)
	InitRestMonitor(app, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/worker-pool/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/monitor/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
