package whatsapp

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	domainDelivery "github.com/AzielCF/az-citas/domains/delivery"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	"github.com/AzielCF/az-citas/pkg/textutil"
)

// MockSender registra los mensajes en vez de enviarlos (MOCK_MODE y tests).
type MockSender struct {
	mu   sync.Mutex
	sent []domainDelivery.OutboundMessage
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(_ context.Context, tc domainTenant.Context, to, text string) error {
	msg := domainDelivery.OutboundMessage{
		PhoneNumberID: tc.Number.PhoneNumberID,
		To:            textutil.Recipient(to),
		Body:          textutil.ForWhatsApp(text),
		SentAt:        time.Now().UTC(),
	}

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"business":        tc.Business.Name,
		"phone_number_id": msg.PhoneNumberID,
		"to":              msg.To,
	}).Infof("[WHATSAPP][MOCK] %s", msg.Body)
	return nil
}

// Sent returns a copy of everything sent so far.
func (m *MockSender) Sent() []domainDelivery.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domainDelivery.OutboundMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
