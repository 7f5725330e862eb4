package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/handler/stream"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

func echo(ctx context.Context, tc *bot.TurnContext) error {
	return tc.SendText(ctx, "echo: "+tc.Activity().Text)
}

func TestHealthz(t *testing.T) {
	r := NewRouter(bot.NewAdapter(), echo, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestMessagesRoute(t *testing.T) {
	r := NewRouter(bot.NewAdapter(), echo, nil)
	body := `{"type":"message","channelId":"test","conversation":{"id":"c1"},"from":{"id":"u1"},"text":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "echo: hi") {
		t.Fatalf("expected echo in body, got %s", resp.Body.String())
	}
}

func TestStreamRoute(t *testing.T) {
	srv := httptest.NewServer(NewRouter(bot.NewAdapter(), echo, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/messages/stream?conversationId=conv-ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello stream.Frame
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read connected frame: %v", err)
	}
	if hello.Type != stream.FrameConnected || hello.ConversationID != "conv-ws" {
		t.Fatalf("unexpected first frame: %+v", hello)
	}

	if err := conn.WriteJSON(activity.Activity{Type: activity.TypeMessage, From: activity.ChannelAccount{ID: "u1"}, Text: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply stream.Frame
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != stream.FrameActivity || reply.Activity == nil {
		t.Fatalf("expected activity frame, got %+v", reply)
	}
	if reply.Activity.Text != "echo: ping" {
		t.Fatalf("unexpected reply text %q", reply.Activity.Text)
	}
	if reply.Activity.Conversation.ID != "conv-ws" || reply.Activity.ChannelID != stream.ChannelID {
		t.Fatalf("reply not addressed to connection conversation: %+v", reply.Activity)
	}

	var end stream.Frame
	if err := conn.ReadJSON(&end); err != nil {
		t.Fatalf("read end frame: %v", err)
	}
	if end.Type != stream.FrameEnd {
		t.Fatalf("expected end frame, got %+v", end)
	}
}

func TestStreamRouteInvalidFrame(t *testing.T) {
	srv := httptest.NewServer(NewRouter(bot.NewAdapter(), echo, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/messages/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello stream.Frame
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read connected frame: %v", err)
	}
	if hello.ConversationID == "" {
		t.Fatalf("expected generated conversation id")
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var frame stream.Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != stream.FrameError {
		t.Fatalf("expected error frame, got %+v", frame)
	}
}
