package messages

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
)

const messageBody = `{"type":"message","id":"a1","channelId":"test","conversation":{"id":"c1"},"from":{"id":"u1","name":"Ada"},"recipient":{"id":"b1"},"text":"hi"}`

func echo(ctx context.Context, tc *bot.TurnContext) error {
	if err := tc.SendText(ctx, "first"); err != nil {
		return err
	}
	return tc.SendText(ctx, "echo: "+tc.Activity().Text)
}

func setupRouter(adapter *bot.Adapter, logic bot.Handler) *chi.Mux {
	r := chi.NewRouter()
	New(adapter, logic, nil).RegisterRoutes(r)
	return r
}

func post(r http.Handler, body string, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestMessagesReturnsReplies(t *testing.T) {
	r := setupRouter(bot.NewAdapter(), echo)
	resp := post(r, messageBody, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out Response
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Activities) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(out.Activities))
	}
	if out.Activities[0].Text != "first" || out.Activities[1].Text != "echo: hi" {
		t.Fatalf("replies out of order: %q, %q", out.Activities[0].Text, out.Activities[1].Text)
	}
	reply := out.Activities[1]
	if reply.ReplyToID != "a1" || reply.Recipient.ID != "u1" || reply.From.ID != "b1" {
		t.Fatalf("reply not addressed to sender: %+v", reply)
	}
}

func TestMessagesNoRepliesIsEmptyList(t *testing.T) {
	r := setupRouter(bot.NewAdapter(), func(context.Context, *bot.TurnContext) error { return nil })
	resp := post(r, messageBody, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"activities":[]`)) {
		t.Fatalf("expected empty activities list, got %s", resp.Body.String())
	}
}

func TestMessagesMalformedBody(t *testing.T) {
	r := setupRouter(bot.NewAdapter(), echo)
	resp := post(r, `{"type":`, "")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMessagesMissingConversation(t *testing.T) {
	r := setupRouter(bot.NewAdapter(), echo)
	resp := post(r, `{"type":"message","channelId":"test","text":"hi"}`, "")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMessagesHandlerErrorSendsApology(t *testing.T) {
	r := setupRouter(bot.NewAdapter(), func(context.Context, *bot.TurnContext) error {
		return errors.New("boom")
	})
	resp := post(r, messageBody, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out Response
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Activities) != 1 || out.Activities[0].Text != bot.ApologyText {
		t.Fatalf("expected apology, got %+v", out.Activities)
	}
}

func TestMessagesErrorHandlerFailure(t *testing.T) {
	adapter := bot.NewAdapter(func(o *bot.AdapterOptions) {
		o.OnTurnError = func(context.Context, *bot.TurnContext, error) error { return errors.New("down") }
	})
	r := setupRouter(adapter, func(context.Context, *bot.TurnContext) error { return errors.New("boom") })
	resp := post(r, messageBody, "")

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestMessagesStreamsSSE(t *testing.T) {
	r := setupRouter(bot.NewAdapter(), echo)
	resp := post(r, messageBody, "text/event-stream")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := resp.Body.String()
	if strings.Count(body, "event: activity\n") != 2 {
		t.Fatalf("expected 2 activity events, got %q", body)
	}
	if !strings.HasSuffix(body, "event: end\ndata: {\"finished\":true}\n\n") {
		t.Fatalf("expected end event last, got %q", body)
	}
	if strings.Index(body, "first") > strings.Index(body, "echo: hi") {
		t.Fatalf("events out of order: %q", body)
	}
}
