package service

import (
	"context"
	"log/slog"
	"time"

	"signal_relay/internal/domain"
	"signal_relay/internal/infra"

	"github.com/google/uuid"
)

// RelayService turns one alert into one chat message.
// It holds no per-invocation state and is safe for concurrent use.
type RelayService struct {
	enricher  domain.Enricher
	messenger domain.Messenger
	metrics   *infra.Metrics
	tracer    *infra.Tracer
}

// NewRelayService creates a RelayService. metrics may be nil.
func NewRelayService(enricher domain.Enricher, messenger domain.Messenger, metrics *infra.Metrics, tracer *infra.Tracer) *RelayService {
	if tracer == nil {
		tracer = infra.NewTracer()
	}
	return &RelayService{
		enricher:  enricher,
		messenger: messenger,
		metrics:   metrics,
		tracer:    tracer,
	}
}

// Handle runs decode → render → enrich → compose → send and maps the
// outcome to a response. It never returns a 5xx for enrichment problems.
func (s *RelayService) Handle(ctx context.Context, ev *domain.InvocationEvent) domain.Response {
	start := time.Now()
	id := uuid.NewString()

	ctx = infra.WithInvocationID(ctx, id)
	ctx, span := s.tracer.StartInvocation(ctx, id)

	outcome, err := s.relay(ctx, ev)
	if err != nil {
		slog.ErrorContext(ctx, "Relay failed", append(infra.LogAttrs(ctx), slog.Any("error", err))...)
	}
	infra.EndSpan(span, err)

	elapsed := time.Since(start)
	s.metrics.RecordInvocation(outcome, elapsed)
	slog.InfoContext(ctx, "Invocation finished",
		append(infra.LogAttrs(ctx),
			slog.String("outcome", string(outcome)),
			slog.Duration("elapsed", elapsed),
		)...,
	)

	return domain.NewResponse(outcome)
}

func (s *RelayService) relay(ctx context.Context, ev *domain.InvocationEvent) (domain.Outcome, error) {
	if ev == nil {
		ev = &domain.InvocationEvent{}
	}

	body, err := domain.DecodeAlertBody(ev.Body)
	if err != nil {
		return domain.OutcomeFailed, err
	}

	message, err := domain.RenderBody(body, domain.NewTemplateContext(ev))
	if err != nil {
		return domain.OutcomeFailed, err
	}

	outcome := domain.OutcomeSent
	text := message

	result, err := s.enrich(ctx, body)
	if err != nil {
		slog.WarnContext(ctx, "Enrichment failed, sending plain message",
			append(infra.LogAttrs(ctx), slog.Any("error", err))...)
		outcome = domain.OutcomeFallback
	} else {
		text = domain.ComposeMessage(message, result)
	}

	if err := s.send(ctx, body, text, outcome == domain.OutcomeFallback); err != nil {
		return domain.OutcomeFailed, err
	}
	return outcome, nil
}

func (s *RelayService) enrich(ctx context.Context, body *domain.AlertBody) (domain.EnrichmentResult, error) {
	ctx, span := s.tracer.StartEnrichment(ctx, body.APIURL)

	start := time.Now()
	result, err := s.enricher.Enrich(ctx, body.APIURL, body.APIPayloadURL)
	s.metrics.RecordEnrichment(time.Since(start), err)

	infra.EndSpan(span, err)
	return result, err
}

func (s *RelayService) send(ctx context.Context, body *domain.AlertBody, text string, fallback bool) error {
	ctx, span := s.tracer.StartSend(ctx, fallback)

	res, err := s.messenger.SendMessage(ctx, body.BotToken, body.ChatID.String(), text)
	infra.EndSpan(span, err)
	if err != nil {
		return err
	}

	attrs := append(infra.LogAttrs(ctx), slog.Bool("fallback", fallback))
	if res != nil && !res.OK {
		slog.WarnContext(ctx, "Bot API rejected message",
			append(attrs,
				slog.Int("error_code", res.ErrorCode),
				slog.String("description", res.Description),
			)...,
		)
		return nil
	}

	if res != nil && res.Result != nil {
		attrs = append(attrs, slog.Int64("message_id", res.Result.MessageID))
	}
	slog.InfoContext(ctx, "Message sent", attrs...)
	return nil
}
