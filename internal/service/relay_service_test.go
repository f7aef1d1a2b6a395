package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"signal_relay/internal/domain"
	"signal_relay/internal/infra"
	"signal_relay/internal/infra/enrichment"
	"signal_relay/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeEnricher returns a fixed result and counts calls.
type fakeEnricher struct {
	result domain.EnrichmentResult
	err    error
	calls  atomic.Int32
}

func (f *fakeEnricher) Enrich(ctx context.Context, apiURL, payloadURL string) (domain.EnrichmentResult, error) {
	f.calls.Add(1)
	return f.result, f.err
}

// fakeMessenger records every text it is asked to send.
type fakeMessenger struct {
	mu    sync.Mutex
	sent  []string
	token string
	chat  string
	err   error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, botToken, chatID, text string) (*domain.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.chat = botToken, chatID
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, text)
	return &domain.SendResult{OK: true}, nil
}

const scenarioBody = `{"bot_token":"T","chat_id":"C","text":"{{ticker}} at {{close}}","api_url":"https://a","api_payload_url":"p"}`

func scenarioEvent() *domain.InvocationEvent {
	return &domain.InvocationEvent{
		Body:   scenarioBody,
		Ticker: domain.StringScalar("BTC"),
		Close:  domain.StringScalar("50000"),
	}
}

func TestRelayService_Enriched(t *testing.T) {
	enricher := &fakeEnricher{result: domain.EnrichmentResult{NewTabURL: "http://x"}}
	messenger := &fakeMessenger{}
	metrics := infra.NewMetrics()
	svc := NewRelayService(enricher, messenger, metrics, nil)

	resp := svc.Handle(context.Background(), scenarioEvent())

	if resp.StatusCode != 200 || resp.Body != `"Message sent successfully!"` {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(messenger.sent) != 1 || messenger.sent[0] != "BTC at 50000\n\n http://x" {
		t.Errorf("unexpected sent texts %q", messenger.sent)
	}
	if messenger.token != "T" || messenger.chat != "C" {
		t.Errorf("unexpected token/chat %q/%q", messenger.token, messenger.chat)
	}
	if got := testutil.ToFloat64(metrics.Invocations.WithLabelValues("sent")); got != 1 {
		t.Errorf("Expected 1 sent invocation, got %v", got)
	}
}

func TestRelayService_NoLinkIsSuccess(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewRelayService(&fakeEnricher{}, messenger, nil, nil)

	resp := svc.Handle(context.Background(), scenarioEvent())

	if resp.StatusCode != 200 || resp.Body != `"Message sent successfully!"` {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(messenger.sent) != 1 || messenger.sent[0] != "BTC at 50000" {
		t.Errorf("unexpected sent texts %q", messenger.sent)
	}
}

func TestRelayService_Fallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"enrichment error", &domain.EnrichmentError{Op: "request", Err: errors.New("refused")}},
		{"timeout", &domain.TimeoutError{After: "50s"}},
		{"unclassified error", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enricher := &fakeEnricher{result: domain.EnrichmentResult{NewTabURL: "ignored"}, err: tt.err}
			messenger := &fakeMessenger{}
			metrics := infra.NewMetrics()
			svc := NewRelayService(enricher, messenger, metrics, nil)

			resp := svc.Handle(context.Background(), scenarioEvent())

			if resp.StatusCode != 200 || resp.Body != `"Fallback message sent successfully!"` {
				t.Errorf("unexpected response %+v", resp)
			}
			if len(messenger.sent) != 1 || messenger.sent[0] != "BTC at 50000" {
				t.Errorf("unexpected sent texts %q", messenger.sent)
			}
			if got := testutil.ToFloat64(metrics.Invocations.WithLabelValues("fallback")); got != 1 {
				t.Errorf("Expected 1 fallback invocation, got %v", got)
			}
		})
	}
}

func TestRelayService_FatalBeforeSend(t *testing.T) {
	tests := []struct {
		name string
		ev   *domain.InvocationEvent
	}{
		{"malformed body", &domain.InvocationEvent{Body: `{"bot_token":`}},
		{"empty body", &domain.InvocationEvent{}},
		{"missing template", &domain.InvocationEvent{Body: `{"bot_token":"T","chat_id":"C"}`}},
		{"nil event", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enricher := &fakeEnricher{}
			messenger := &fakeMessenger{}
			svc := NewRelayService(enricher, messenger, nil, nil)

			resp := svc.Handle(context.Background(), tt.ev)

			if resp.StatusCode != 500 || resp.Body != `"Error sending message"` {
				t.Errorf("unexpected response %+v", resp)
			}
			if enricher.calls.Load() != 0 {
				t.Error("enrichment must not be called")
			}
			if len(messenger.sent) != 0 {
				t.Error("nothing must be sent")
			}
		})
	}
}

func TestRelayService_SendFailure(t *testing.T) {
	tests := []struct {
		name     string
		enricher *fakeEnricher
	}{
		{"after enrichment", &fakeEnricher{result: domain.EnrichmentResult{NewTabURL: "http://x"}}},
		{"after fallback", &fakeEnricher{err: &domain.TimeoutError{After: "50s"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messenger := &fakeMessenger{err: &domain.MessagingError{Op: "request", Err: errors.New("refused")}}
			metrics := infra.NewMetrics()
			svc := NewRelayService(tt.enricher, messenger, metrics, nil)

			resp := svc.Handle(context.Background(), scenarioEvent())

			if resp.StatusCode != 500 {
				t.Errorf("Expected 500, got %d", resp.StatusCode)
			}
			if got := testutil.ToFloat64(metrics.Invocations.WithLabelValues("failed")); got != 1 {
				t.Errorf("Expected 1 failed invocation, got %v", got)
			}
		})
	}
}

// End-to-end against httptest doubles for both outbound APIs.
func TestRelayService_HTTP(t *testing.T) {
	newBot := func(t *testing.T) (*httptest.Server, *[]string) {
		var mu sync.Mutex
		texts := []string{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			texts = append(texts, r.URL.Query().Get("text"))
			mu.Unlock()
			w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
		}))
		t.Cleanup(srv.Close)
		return srv, &texts
	}

	eventFor := func(apiURL string) *domain.InvocationEvent {
		body, _ := json.Marshal(map[string]string{
			"bot_token":       "T",
			"chat_id":         "C",
			"text":            "{{ticker}} at {{close}}",
			"api_url":         apiURL,
			"api_payload_url": "p",
		})
		ev := scenarioEvent()
		ev.Body = string(body)
		return ev
	}

	t.Run("enrichment succeeds", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"newTabUrl":"http://x"}`))
		}))
		defer api.Close()
		bot, texts := newBot(t)

		svc := NewRelayService(enrichment.NewClient(time.Second), telegram.NewClient(bot.URL, time.Second), nil, nil)
		resp := svc.Handle(context.Background(), eventFor(api.URL))

		if resp.StatusCode != 200 {
			t.Fatalf("Expected 200, got %+v", resp)
		}
		if len(*texts) != 1 || (*texts)[0] != "BTC at 50000\n\n http://x" {
			t.Errorf("unexpected texts %q", *texts)
		}
	})

	t.Run("enrichment times out", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			w.Write([]byte(`{"newTabUrl":"http://late"}`))
		}))
		defer api.Close()
		bot, texts := newBot(t)

		svc := NewRelayService(enrichment.NewClient(50*time.Millisecond), telegram.NewClient(bot.URL, time.Second), nil, nil)
		resp := svc.Handle(context.Background(), eventFor(api.URL))

		if resp.StatusCode != 200 || resp.Body != `"Fallback message sent successfully!"` {
			t.Fatalf("unexpected response %+v", resp)
		}
		if len(*texts) != 1 || (*texts)[0] != "BTC at 50000" {
			t.Errorf("unexpected texts %q", *texts)
		}
	})

	t.Run("bot unreachable", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer api.Close()
		bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		botURL := bot.URL
		bot.Close()

		svc := NewRelayService(enrichment.NewClient(time.Second), telegram.NewClient(botURL, time.Second), nil, nil)
		resp := svc.Handle(context.Background(), eventFor(api.URL))

		if resp.StatusCode != 500 {
			t.Fatalf("Expected 500, got %+v", resp)
		}
	})
}
