// Package lambda 在 API Gateway 代理集成之后处理机器人回合。
package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

const correlationHeader = "X-Correlation-Id"

type messagesResponse struct {
	Activities []*activity.Activity `json:"activities"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler 把 API Gateway 代理事件转换为适配器回合。
type Handler struct {
	adapter *bot.Adapter
	logic   bot.Handler
	logger  *slog.Logger
}

// NewHandler 校验依赖并创建 Handler。
func NewHandler(adapter *bot.Adapter, logic bot.Handler, logger *slog.Logger) (*Handler, error) {
	if adapter == nil {
		return nil, errors.New("lambda: adapter is required")
	}
	if logic == nil {
		return nil, errors.New("lambda: bot logic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{adapter: adapter, logic: logic, logger: logger}, nil
}

// Handle 处理一次 POST /api/messages 事件。失败通过响应状态码返回，
// 返回的 error 始终为 nil，避免 API Gateway 返回 502。
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := header(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.logger.With("correlation_id", correlationID)

	if req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, correlationID, errorResponse{Error: "method not allowed"}), nil
	}

	var act activity.Activity
	if err := json.Unmarshal([]byte(req.Body), &act); err != nil {
		return respond(http.StatusBadRequest, correlationID, errorResponse{Error: "invalid activity body"}), nil
	}

	sink := &bot.BufferedSink{}
	if err := h.adapter.ProcessActivity(ctx, &act, sink, h.logic); err != nil {
		if boterror.Is(err, boterror.InvalidArgument) {
			return respond(http.StatusBadRequest, correlationID, errorResponse{Error: err.Error()}), nil
		}
		log.ErrorContext(ctx, "turn failed", "err", err)
		return respond(http.StatusInternalServerError, correlationID, errorResponse{Error: "turn failed"}), nil
	}

	replies := sink.Activities()
	log.InfoContext(ctx, "turn processed", "activity_type", act.Type, "replies", len(replies))
	return respond(http.StatusOK, correlationID, messagesResponse{Activities: replies}), nil
}

func respond(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(raw),
	}
}

// header 忽略大小写查找请求头；API Gateway 保留客户端的原始大小写。
func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
