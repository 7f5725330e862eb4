package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/SaratA8717/Botbuilder-samples/internal/handler/messages"
	"github.com/SaratA8717/Botbuilder-samples/internal/handler/stream"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// turnClient 把一个 Activity 发给机器人并收集本回合的回复。
type turnClient interface {
	Send(ctx context.Context, act *activity.Activity) ([]*activity.Activity, error)
	Close() error
}

// httpClient 走 POST /api/messages。
type httpClient struct {
	endpoint string
	hc       *http.Client
}

func newHTTPClient(endpoint string) *httpClient {
	return &httpClient{endpoint: endpoint, hc: &http.Client{}}
}

func (c *httpClient) Send(ctx context.Context, act *activity.Activity) ([]*activity.Activity, error) {
	body, err := json.Marshal(act)
	if err != nil {
		return nil, fmt.Errorf("encode activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("bot returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out messages.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode replies: %w", err)
	}
	return out.Activities, nil
}

func (c *httpClient) Close() error { return nil }

// wsClient 走 GET /api/messages/stream，一条连接承载整个会话。
type wsClient struct {
	conn           *websocket.Conn
	conversationID string
}

func dialWS(ctx context.Context, endpoint, conversationID string) (*wsClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if conversationID != "" {
		q := u.Query()
		q.Set("conversationId", conversationID)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}

	var hello stream.Frame
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read connected frame: %w", err)
	}
	if hello.Type != stream.FrameConnected {
		conn.Close()
		return nil, fmt.Errorf("unexpected first frame %q", hello.Type)
	}
	return &wsClient{conn: conn, conversationID: hello.ConversationID}, nil
}

func (c *wsClient) Send(ctx context.Context, act *activity.Activity) ([]*activity.Activity, error) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
		c.conn.SetWriteDeadline(deadline)
	}
	if act.Conversation.ID == "" {
		act.Conversation.ID = c.conversationID
	}
	if err := c.conn.WriteJSON(act); err != nil {
		return nil, fmt.Errorf("write activity: %w", err)
	}

	var replies []*activity.Activity
	for {
		var frame stream.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return replies, fmt.Errorf("read frame: %w", err)
		}
		switch frame.Type {
		case stream.FrameActivity:
			if frame.Activity != nil {
				replies = append(replies, frame.Activity)
			}
		case stream.FrameError:
			return replies, errors.New(frame.Error)
		case stream.FrameEnd:
			return replies, nil
		}
	}
}

func (c *wsClient) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// formatReply 把回复渲染成一行终端输出；附件只打印类型。
func formatReply(a *activity.Activity) string {
	var b strings.Builder
	b.WriteString("bot> ")
	b.WriteString(a.Text)
	for _, att := range a.Attachments {
		if b.Len() > len("bot> ") {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "[%s]", att.ContentType)
	}
	if a.SuggestedActions != nil {
		titles := make([]string, 0, len(a.SuggestedActions.Actions))
		for _, action := range a.SuggestedActions.Actions {
			titles = append(titles, action.Title)
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(titles, " | "))
	}
	return b.String()
}
