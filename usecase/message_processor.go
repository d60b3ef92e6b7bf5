package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-citas/botengine/application"
	"github.com/AzielCF/az-citas/botengine/domain"
	domainConversation "github.com/AzielCF/az-citas/domains/conversation"
	domainCustomer "github.com/AzielCF/az-citas/domains/customer"
	domainDedup "github.com/AzielCF/az-citas/domains/dedup"
	domainDelivery "github.com/AzielCF/az-citas/domains/delivery"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	domainWebhook "github.com/AzielCF/az-citas/domains/webhook"
	"github.com/AzielCF/az-citas/pkg/botmonitor"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
	"github.com/AzielCF/az-citas/validations"
)

// Agent es el bucle modelo ⇄ herramientas visto desde el procesador.
type Agent interface {
	Run(ctx context.Context, req domain.ChatRequest, tc domain.ToolContext) (application.Result, error)
}

type ProcessorDeps struct {
	Dedup         domainDedup.IGate
	Tenants       domainTenant.IResolver
	Conversations domainConversation.IStore
	Customers     domainCustomer.IRepository
	Prompter      *application.Prompter
	Agent         Agent
	Sender        domainDelivery.ISender
	HistoryLimit  int
	// Monitor es opcional
	Monitor       *botmonitor.Monitor
}

type messageProcessor struct {
	deps ProcessorDeps
	now  func() time.Time
}

func NewMessageProcessor(deps ProcessorDeps) domainWebhook.IProcessor {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = domainConversation.DefaultHistoryLimit
	}
	if deps.Prompter == nil {
		deps.Prompter = application.NewPrompter()
	}
	return &messageProcessor{deps: deps, now: time.Now}
}

// Admit marca el mensaje antes de cualquier trabajo costoso.
func (p *messageProcessor) Admit(ctx context.Context, in domainWebhook.InboundMessage) bool {
	duplicate := p.deps.Dedup.CheckAndMark(ctx, in.MessageID)
	status := botmonitor.StatusOK
	if duplicate {
		status = botmonitor.StatusSkipped
	}
	p.deps.Monitor.Record(botmonitor.Event{
		MessageID: in.MessageID,
		EndUser:   in.From,
		Stage:     botmonitor.StageInbound,
		Status:    status,
		Metadata:  map[string]string{"phone_number_id": in.RoutingKey},
	})
	return duplicate
}

func (p *messageProcessor) Process(ctx context.Context, in domainWebhook.InboundMessage) domainWebhook.Result {
	log := logrus.WithFields(logrus.Fields{
		"message_id":      in.MessageID,
		"whatsapp_id":     in.From,
		"phone_number_id": in.RoutingKey,
	})

	if err := validations.ValidateInbound(ctx, in); err != nil {
		log.WithError(err).Warn("[WEBHOOK] Ignoring invalid inbound message")
		return domainWebhook.Result{}
	}

	tc := p.deps.Tenants.ResolveOrDefault(ctx, in.RoutingKey)
	log = log.WithFields(logrus.Fields{"business_id": tc.BusinessID(), "default_tenant": tc.IsDefault})

	cust := p.customer(ctx, in, log)

	recent, err := p.deps.Conversations.ReadRecent(ctx, tc.BusinessID(), in.From, p.deps.HistoryLimit)
	if err != nil {
		log.WithError(err).Warn("[WEBHOOK] Could not read history, continuing without it")
		recent = nil
	}

	now := p.now()
	req := p.deps.Prompter.Assemble(tc, recent, cust, now)
	req.UserText = in.Text

	started := time.Now()
	res, err := p.deps.Agent.Run(ctx, req, domain.ToolContext{Tenant: tc, EndUser: in.From, Now: now})
	p.record(in, tc, botmonitor.StageAgent, err, time.Since(started), map[string]string{
		"iterations":  strconv.Itoa(res.Iterations),
		"tool_calls":  strconv.Itoa(res.ToolCalls),
		"cap_reached": strconv.FormatBool(res.CapReached),
	})
	if err != nil {
		log.WithError(err).Error("[AGENT] Turn failed, replying with apology")
	} else {
		log.WithFields(logrus.Fields{
			"iterations":    res.Iterations,
			"tool_calls":    res.ToolCalls,
			"cap_reached":   res.CapReached,
			"input_tokens":  res.Usage.InputTokens,
			"output_tokens": res.Usage.OutputTokens,
		}).Info("[AGENT] Turn completed")
	}
	reply := res.Text
	if strings.TrimSpace(reply) == "" {
		reply = application.FallbackApology
	}

	// Las dos escrituras son independientes: si falla una la otra se intenta igual.
	if err := p.deps.Conversations.Append(ctx, tc.BusinessID(), in.From, domainConversation.RoleUser, in.Text); err != nil {
		log.WithError(err).Error("[WEBHOOK] Failed to store user turn")
	}
	if err := p.deps.Conversations.Append(ctx, tc.BusinessID(), in.From, domainConversation.RoleAssistant, reply); err != nil {
		log.WithError(err).Error("[WEBHOOK] Failed to store assistant turn")
	}

	result := domainWebhook.Result{Reply: reply}
	started = time.Now()
	err = p.deps.Sender.Send(ctx, tc, in.From, reply)
	p.record(in, tc, botmonitor.StageOutbound, err, time.Since(started), nil)
	if err != nil {
		log.WithError(err).Error("[WHATSAPP] Failed to deliver reply")
		return result
	}
	result.Delivered = true
	return result
}

func (p *messageProcessor) record(in domainWebhook.InboundMessage, tc domainTenant.Context, stage string, err error, took time.Duration, meta map[string]string) {
	e := botmonitor.Event{
		MessageID:  in.MessageID,
		BusinessID: tc.BusinessID(),
		EndUser:    in.From,
		Stage:      stage,
		Status:     botmonitor.StatusOK,
		Metadata:   meta,
		DurationMs: took.Milliseconds(),
	}
	if err != nil {
		e.Status = botmonitor.StatusError
		e.Error = err.Error()
	}
	p.deps.Monitor.Record(e)
}

func (p *messageProcessor) customer(ctx context.Context, in domainWebhook.InboundMessage, log *logrus.Entry) domainCustomer.Customer {
	fallback := domainCustomer.Customer{WhatsAppID: in.From, Name: strings.TrimSpace(in.ProfileName)}
	if fallback.Name == "" {
		fallback.Name = domainCustomer.DefaultName
	}
	if p.deps.Customers == nil {
		return fallback
	}

	cust, err := p.deps.Customers.Get(ctx, in.From)
	if err != nil {
		var notFound pkgError.NotFoundError
		if !errors.As(err, &notFound) {
			log.WithError(err).Warn("[WEBHOOK] Customer lookup failed")
		}
		return fallback
	}
	if strings.TrimSpace(cust.Name) == "" {
		cust.Name = fallback.Name
	}
	return cust
}
