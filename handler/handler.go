package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"brief-agent/internal/domain"
	"brief-agent/internal/host"
	"brief-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type ChatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type Handler struct {
	uc ChatUseCase
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	BrandID   string `json:"brandId"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
	Choice    string `json:"choice"`
	Tone      string `json:"tone"`
}

type chatResponse struct {
	SessionID string         `json:"sessionId"`
	Stage     domain.Stage   `json:"stage"`
	Replies   []domain.Reply `json:"replies"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func NewHandler(uc ChatUseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &Handler{uc: uc}, nil
}

// Handle serves one chat turn from an API Gateway proxy event.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = newUUID()
	}
	logger := slog.With("correlation_id", correlationID)

	var body chatRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		logger.Warn("invalid request body", "err", err)
		return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "malformed_body",
		}), nil
	}

	out, err := h.uc.Chat(ctx, usecase.ChatInput{
		SessionID: body.SessionID,
		BrandID:   body.BrandID,
		UserID:    body.UserID,
		Text:      body.Text,
		Choice:    domain.Choice(body.Choice),
		Tone:      domain.ToneProfile(strings.ToLower(strings.TrimSpace(body.Tone))),
		Meta:      requestMeta(req),
	})
	if err != nil {
		status, resp := mapError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("chat turn failed", "session_id", body.SessionID, "err", err)
		} else {
			logger.Info("chat turn rejected", "session_id", body.SessionID, "err", err)
		}
		return jsonResponse(status, correlationID, resp), nil
	}

	replies := out.Replies
	if replies == nil {
		replies = []domain.Reply{}
	}
	return jsonResponse(http.StatusOK, correlationID, chatResponse{
		SessionID: out.SessionID,
		Stage:     out.Stage,
		Replies:   replies,
	}), nil
}

func mapError(err error) (int, errorResponse) {
	var reason string
	var uerr *usecase.Error
	if errors.As(err, &uerr) && uerr != nil {
		reason = uerr.Reason
	}
	switch code := usecase.CodeOf(err); code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, errorResponse{Error: string(code), Reason: reason}
	case usecase.ErrorSessionNotFound:
		return http.StatusNotFound, errorResponse{Error: string(code), Reason: reason}
	default:
		// internal reasons stay in the logs
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
}

func requestMeta(req events.APIGatewayProxyRequest) host.RequestMeta {
	return host.RequestMeta{
		Host:    req.RequestContext.DomainName,
		Headers: req.Headers,
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func jsonResponse(status int, correlationID string, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(body),
	}
}

var newUUID = func() string {
	return uuid.NewString()
}
