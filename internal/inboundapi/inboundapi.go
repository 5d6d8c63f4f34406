// Package inboundapi exposes internal/inbound's Ingest/Router/CleanupTrigger
// use cases as HMAC-signed webhook endpoints, the same shape
// httpapi.webhookDecisionHandler already uses for the doctor-decision
// callback. The actual Matrix/Slack event subscription — the process that
// watches Room-1/2/3 and turns raw provider events into the normalized
// Room1Message/ChatReply/Room1Reaction payloads below — is out of scope,
// matching the llmclient/pdfextract provider-boundary pattern: this package
// only defines the seam that bridge posts to.
package inboundapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/carlosapgomes/eda-triage/internal/inbound"
)

// Handler registers the normalized chat-event webhook routes.
type Handler struct {
	ingest *inbound.Ingest
	router *inbound.Router
	secret []byte
}

// New creates a Handler.
func New(ingest *inbound.Ingest, router *inbound.Router, webhookSecret string) *Handler {
	return &Handler{ingest: ingest, router: router, secret: []byte(webhookSecret)}
}

// Register mounts the webhook routes on e, grouped under /callbacks/chat and
// guarded by the same HMAC signature scheme as /callbacks/triage-decision.
func (h *Handler) Register(e *echo.Echo) {
	group := e.Group("/callbacks/chat")
	group.POST("/room1-message", h.room1MessageHandler)
	group.POST("/reply", h.replyHandler)
	group.POST("/room1-reaction", h.room1ReactionHandler)
}

func (h *Handler) readSignedBody(c *echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	if err := verifySignature(h.secret, body, c.Request().Header.Get("x-signature")); err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}
	return body, nil
}

func (h *Handler) room1MessageHandler(c *echo.Context) error {
	body, err := h.readSignedBody(c)
	if err != nil {
		return err
	}

	var msg inbound.Room1Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}

	result, err := h.ingest.HandleRoom1Message(c.Request().Context(), msg)
	if err != nil {
		return mapInternalError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// replyHandler dispatches a Room-2 or Room-3 text reply to whichever
// use case owns that room; a reply for neither room is reported as
// unprocessed rather than an error, since the bridge forwards every room's
// messages indiscriminately.
func (h *Handler) replyHandler(c *echo.Context) error {
	body, err := h.readSignedBody(c)
	if err != nil {
		return err
	}

	var reply inbound.ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}

	result, err := h.router.HandleRoom2Reply(c.Request().Context(), reply)
	if err != nil {
		return mapInternalError(err)
	}
	if result.Reason == "wrong_room" {
		result, err = h.router.HandleRoom3Reply(c.Request().Context(), reply)
		if err != nil {
			return mapInternalError(err)
		}
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) room1ReactionHandler(c *echo.Context) error {
	body, err := h.readSignedBody(c)
	if err != nil {
		return err
	}

	var reaction inbound.Room1Reaction
	if err := json.Unmarshal(body, &reaction); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}

	result, err := h.router.HandleRoom1Reaction(c.Request().Context(), reaction)
	if err != nil {
		return mapInternalError(err)
	}
	return c.JSON(http.StatusOK, result)
}

var errInvalidSignature = errors.New("invalid signature")

func verifySignature(secret []byte, body []byte, header string) error {
	provided := strings.TrimPrefix(header, "sha256=")
	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return errInvalidSignature
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expectedMAC := mac.Sum(nil)

	if subtle.ConstantTimeCompare(providedMAC, expectedMAC) != 1 {
		return errInvalidSignature
	}
	return nil
}

func mapInternalError(err error) *echo.HTTPError {
	slog.Error("unexpected inboundapi error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
