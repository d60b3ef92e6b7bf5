package calendar

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainCalendar "github.com/AzielCF/az-citas/domains/calendar"
)

func testServiceAccount(t *testing.T, tokenURL string) (ServiceAccount, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return ServiceAccount{
		ClientEmail: "bot@project.iam.gserviceaccount.com",
		PrivateKey:  string(pemKey),
		TokenURI:    tokenURL,
	}, key
}

func TestGoogleCalendar_ListEvents(t *testing.T) {
	var tokenCalls int
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sa, key := testServiceAccount(t, srv.URL+"/token")

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		assert.Equal(t, jwtBearerGrant, form.Get("grant_type"))

		// la aserción debe estar firmada con la clave de la cuenta de servicio
		parsed, err := jwt.Parse(form.Get("assertion"), func(*jwt.Token) (interface{}, error) {
			return &key.PublicKey, nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, sa.ClientEmail, claims["iss"])
		assert.Equal(t, calendarScope, claims["scope"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "ya29.test", "expires_in": 3600})
	})
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.test", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"a","summary":"Corte","description":"[WhatsApp ID: 573001]","created":"2026-03-01T10:00:00Z",
			 "start":{"dateTime":"2026-03-02T10:00:00-05:00"},"end":{"dateTime":"2026-03-02T11:00:00-05:00"}},
			{"id":"b","summary":"Festivo","start":{"date":"2026-03-02"},"end":{"date":"2026-03-03"}}
		]}`))
	})

	g := NewGoogleCalendar(sa, GoogleOptions{BaseURL: srv.URL, Timeout: 5 * time.Second})
	events, err := g.ListEvents(context.Background(), "primary", time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Corte", events[0].Summary)
	assert.False(t, events[0].AllDay)
	assert.True(t, events[0].OwnedBy("573001"))
	assert.Equal(t, 15, events[0].Start.UTC().Hour())
	assert.True(t, events[1].AllDay)

	// el token queda cacheado
	_, err = g.ListEvents(context.Background(), "primary", time.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)
}

func TestGoogleCalendar_APIErrorIsReturned(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sa, _ := testServiceAccount(t, srv.URL+"/token")
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"t","expires_in":3600}`))
	})
	mux.HandleFunc("/calendars/primary/events/missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
	})

	g := NewGoogleCalendar(sa, GoogleOptions{BaseURL: srv.URL})
	err := g.DeleteEvent(context.Background(), "primary", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestMemoryCalendar_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCalendar()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ev, err := m.CreateEvent(ctx, "cal", domainCalendar.NewEvent{
		Summary:     "Corte",
		Description: domainCalendar.WithCorrelation("", "573001"),
		Start:       start,
		End:         start.Add(time.Hour),
	})
	require.NoError(t, err)

	events, err := m.ListEvents(ctx, "cal", start.Add(-time.Hour), 50)
	require.NoError(t, err)
	require.Len(t, events, 1)

	moved, err := m.UpdateEventTime(ctx, "cal", ev.ID, start.Add(2*time.Hour), start.Add(3*time.Hour), "UTC")
	require.NoError(t, err)
	assert.Equal(t, 12, moved.Start.Hour())

	require.NoError(t, m.DeleteEvent(ctx, "cal", ev.ID))
	assert.Error(t, m.DeleteEvent(ctx, "cal", ev.ID))

	events, err = m.ListEvents(ctx, "other", start, 50)
	require.NoError(t, err)
	assert.Empty(t, events)
}
