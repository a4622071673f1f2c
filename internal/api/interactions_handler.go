package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tipsbot/internal/interactions"
	discordin "github.com/tipsbot/internal/provider_input/discord"
	discordout "github.com/tipsbot/internal/provider_output/discord"
	"github.com/tipsbot/internal/webhookutils"
)

// InteractionRouter answers verified, decoded interactions.
type InteractionRouter interface {
	Handle(ctx context.Context, in discordin.Interaction) (discordout.InteractionResponse, error)
}

// InteractionsHandler is the webhook endpoint. The signature is checked
// against the raw body before anything is decoded.
type InteractionsHandler struct {
	verifier *webhookutils.Verifier
	router   InteractionRouter
	logger   zerolog.Logger
}

func NewInteractionsHandler(verifier *webhookutils.Verifier, router InteractionRouter, logger zerolog.Logger) *InteractionsHandler {
	return &InteractionsHandler{verifier: verifier, router: router, logger: logger}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// Handle maps malformed input to 400, bad signatures to 401 and everything
// else, business failures included, to 200.
func (h *InteractionsHandler) Handle(c echo.Context) error {
	req := c.Request()
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("failed to read request body"))
	}

	signed := webhookutils.ExtractSignedRequest(req.Header, body)
	if err := h.verifier.Verify(signed); err != nil {
		if errors.Is(err, webhookutils.ErrMissingSignature) {
			return c.JSON(http.StatusBadRequest, errorBody("missing signature headers or body"))
		}
		h.logger.Warn().Str("request_id", requestID).Msg("Rejected interaction with invalid signature")
		return c.JSON(http.StatusUnauthorized, errorBody("invalid request signature"))
	}

	in, err := discordin.ParseInteraction(body)
	if err != nil {
		h.logger.Warn().Err(err).Str("request_id", requestID).Msg("Rejected malformed interaction")
		return c.JSON(http.StatusBadRequest, errorBody("invalid interaction"))
	}

	resp, err := h.router.Handle(req.Context(), in)
	if err != nil {
		level := h.logger.Warn()
		if !errors.Is(err, interactions.ErrInvalidRequest) {
			level = h.logger.Error()
		}
		level.Err(err).Str("request_id", requestID).Str("interaction_id", in.Meta().ID).Msg("Interaction not routed")
		return c.JSON(http.StatusBadRequest, errorBody("invalid interaction"))
	}

	return c.JSON(http.StatusOK, resp)
}
