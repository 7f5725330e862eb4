package messages

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
	"github.com/SaratA8717/Botbuilder-samples/pkg/utils"
)

// maxBodyBytes 限制单个 Activity 请求体大小。
const maxBodyBytes = 1 << 20

// Response 是 POST /api/messages 的响应体。
type Response struct {
	Activities []*activity.Activity `json:"activities"`
}

// Handler 把 HTTP 请求转换为一次对话轮次。
type Handler struct {
	adapter *bot.Adapter
	logic   bot.Handler
	logger  *slog.Logger
}

// New 创建消息处理器。
func New(adapter *bot.Adapter, logic bot.Handler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{adapter: adapter, logic: logic, logger: logger}
}

// RegisterRoutes 注册消息路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleMessages)
}

// handleMessages 处理单个入站 Activity。
// Accept: text/event-stream 时逐条以 SSE 推送回复，否则在响应体中一次性返回。
func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	act, err := DecodeActivity(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.streamTurn(w, r, act)
		return
	}

	sink := &bot.BufferedSink{}
	if err := h.adapter.ProcessActivity(r.Context(), act, sink, h.logic); err != nil {
		h.respondTurnError(w, act, err)
		return
	}

	replies := sink.Activities()
	if replies == nil {
		replies = []*activity.Activity{}
	}
	utils.RespondJSON(w, http.StatusOK, Response{Activities: replies})
}

func (h *Handler) streamTurn(w http.ResponseWriter, r *http.Request, act *activity.Activity) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	sink := bot.SinkFunc(func(_ context.Context, a *activity.Activity) error {
		utils.SendSSEEvent(w, flusher, "activity", a)
		return nil
	})
	if err := h.adapter.ProcessActivity(r.Context(), act, sink, h.logic); err != nil {
		h.logger.ErrorContext(r.Context(), "[messages] turn failed", "error", err, "conversation_id", act.Conversation.ID)
		utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": "turn failed"})
		return
	}
	utils.SendSSEEvent(w, flusher, "end", map[string]bool{"finished": true})
}

func (h *Handler) respondTurnError(w http.ResponseWriter, act *activity.Activity, err error) {
	if boterror.Is(err, boterror.InvalidArgument) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("[messages] turn failed", "error", err, "conversation_id", act.Conversation.ID)
	utils.RespondError(w, http.StatusInternalServerError, "turn failed")
}

// DecodeActivity 解析并校验请求体中的 Activity。
func DecodeActivity(r *http.Request) (*activity.Activity, error) {
	var act activity.Activity
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(&act); err != nil {
		return nil, errors.New("invalid activity body")
	}
	if err := act.Validate(); err != nil {
		return nil, err
	}
	return &act, nil
}
