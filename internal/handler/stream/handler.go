package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// ChannelID 是 WebSocket 入口为未指定渠道的 Activity 填充的渠道名。
const ChannelID = "websocket"

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// 帧类型
const (
	FrameConnected = "connected"
	FrameActivity  = "activity"
	FrameError     = "error"
	FrameEnd       = "end" // 一个回合的最后一条回复之后发送
)

// Frame 是服务端下发的一帧。
type Frame struct {
	Type           string             `json:"type"`
	ConversationID string             `json:"conversationId,omitempty"`
	Activity       *activity.Activity `json:"activity,omitempty"`
	Error          string             `json:"error,omitempty"`
	Timestamp      int64              `json:"timestamp"`
}

// Handler 通过 WebSocket 承载对话：每个入站帧是一个 Activity，回复逐条推送。
type Handler struct {
	adapter  *bot.Adapter
	logic    bot.Handler
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New 创建 WebSocket 处理器。
func New(adapter *bot.Adapter, logic bot.Handler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		adapter: adapter,
		logic:   logic,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册 WebSocket 路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/messages/stream", h.handleWebSocket)
}

// conn 串行化对同一连接的写操作，回复与心跳可能并发写入。
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeFrame(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.Timestamp = time.Now().UnixMilli()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(f)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理 WebSocket 连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("[websocket] upgrade failed", "error", err)
		return
	}
	defer ws.Close()
	c := &conn{ws: ws}

	h.logger.Info("[websocket] new connection", "conversation_id", conversationID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, c)

	if err := c.writeFrame(Frame{Type: FrameConnected, ConversationID: conversationID}); err != nil {
		return
	}

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("[websocket] read error", "error", err, "conversation_id", conversationID)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleFrame(ctx, c, conversationID, raw)
	}
}

// handleFrame 处理一个入站 Activity；同一连接上的轮次按到达顺序依次执行。
func (h *Handler) handleFrame(ctx context.Context, c *conn, conversationID string, raw []byte) {
	var act activity.Activity
	if err := json.Unmarshal(raw, &act); err != nil {
		h.sendError(c, "invalid activity frame")
		return
	}
	if act.ChannelID == "" {
		act.ChannelID = ChannelID
	}
	if act.Conversation.ID == "" {
		act.Conversation.ID = conversationID
	}
	if act.ID == "" {
		act.ID = uuid.NewString()
	}

	sink := bot.SinkFunc(func(_ context.Context, out *activity.Activity) error {
		return c.writeFrame(Frame{Type: FrameActivity, ConversationID: conversationID, Activity: out})
	})
	if err := h.adapter.ProcessActivity(ctx, &act, sink, h.logic); err != nil {
		h.logger.Error("[websocket] turn failed", "error", err, "conversation_id", conversationID)
		h.sendError(c, err.Error())
		return
	}
	if err := c.writeFrame(Frame{Type: FrameEnd, ConversationID: conversationID}); err != nil {
		h.logger.Warn("[websocket] write end frame failed", "error", err)
	}
}

func (h *Handler) sendError(c *conn, message string) {
	if err := c.writeFrame(Frame{Type: FrameError, Error: message}); err != nil {
		h.logger.Warn("[websocket] write error frame failed", "error", err)
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
