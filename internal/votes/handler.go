package votes

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pollwise/backend/config"
	"github.com/pollwise/backend/internal/middleware"
	"github.com/pollwise/backend/internal/polls"
	"github.com/pollwise/backend/pkg/response"
)

// CastRequest is the body for POST /polls/:id/votes. OptionIndex is a
// pointer so that index 0 survives required-field binding.
type CastRequest struct {
	OptionIndex *int   `json:"option_index" binding:"required"`
	Token       string `json:"token"`
}

// Notifier pushes live tallies to connected viewers.
type Notifier interface {
	BroadcastToPollAndPublish(pollID uuid.UUID, event string, payload interface{})
}

// Invalidator drops cached views of the affected poll.
type Invalidator interface {
	InvalidatePoll(ctx context.Context, pollID uuid.UUID)
}

// TokenIssuer creates one-time anonymous vote tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, pollID uuid.UUID) (string, error)
}

// Handler handles vote HTTP endpoints.
type Handler struct {
	service *Service
	tokens  TokenIssuer
	cache   Invalidator
	hub     Notifier
	policy  config.AnonVotePolicy
	logger  *zap.Logger
}

// NewHandler creates a votes handler.
func NewHandler(service *Service, tokens TokenIssuer, cache Invalidator, hub Notifier, policy config.AnonVotePolicy, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, tokens: tokens, cache: cache, hub: hub, policy: policy, logger: logger}
}

// Cast handles POST /polls/:id/votes (optional auth).
func (h *Handler) Cast(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}

	var req CastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var voterID *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		voterID = &id
	}

	ctx := c.Request.Context()
	poll, results, err := h.service.Cast(ctx, pollID, voterID, *req.OptionIndex, req.Token)
	if err != nil {
		h.respondCastError(c, err)
		return
	}

	if h.cache != nil {
		h.cache.InvalidatePoll(ctx, poll.ID)
	}
	if h.hub != nil {
		h.hub.BroadcastToPollAndPublish(poll.ID, "results", results)
	}
	response.OK(c, gin.H{"poll_id": poll.ID, "results": results})
}

// HasVoted handles GET /polls/:id/votes/me (authenticated).
func (h *Handler) HasVoted(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	voted, optionIndex, err := h.service.HasVoted(c.Request.Context(), pollID, &userID)
	if err != nil {
		if errors.Is(err, polls.ErrNotFound) {
			response.NotFound(c, "poll not found")
			return
		}
		h.logger.Error("has voted lookup", zap.Error(err), zap.String("poll_id", pollID.String()))
		response.Internal(c, "failed to check vote status")
		return
	}

	body := gin.H{"has_voted": voted}
	if voted {
		body["voted_option"] = optionIndex
	}
	response.OK(c, body)
}

// IssueToken handles POST /polls/:id/vote-token. Only meaningful under the
// one_time_token policy; other policies get a 404-style refusal so the
// endpoint does not advertise itself.
func (h *Handler) IssueToken(c *gin.Context) {
	if h.policy != config.AnonOneTimeToken || h.tokens == nil {
		response.NotFound(c, "vote tokens are not enabled")
		return
	}
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}

	ctx := c.Request.Context()
	if _, _, err := h.service.HasVoted(ctx, pollID, nil); err != nil {
		// Anonymous HasVoted only fails when the poll lookup fails.
		if errors.Is(err, polls.ErrNotFound) {
			response.NotFound(c, "poll not found")
			return
		}
		h.logger.Error("poll lookup", zap.Error(err), zap.String("poll_id", pollID.String()))
		response.Internal(c, "failed to issue vote token")
		return
	}

	token, err := h.tokens.Issue(ctx, pollID)
	if err != nil {
		h.logger.Error("issue vote token", zap.Error(err), zap.String("poll_id", pollID.String()))
		response.Internal(c, "failed to issue vote token")
		return
	}
	response.Created(c, gin.H{"token": token})
}

func (h *Handler) respondCastError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, polls.ErrNotFound):
		response.NotFound(c, "poll not found")
	case errors.Is(err, ErrInvalidOption):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrAlreadyVoted):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrAnonDisabled), errors.Is(err, ErrTokenRequired), errors.Is(err, ErrTokenInvalid):
		response.Forbidden(c, err.Error())
	default:
		h.logger.Error("cast vote", zap.Error(err))
		response.Internal(c, "failed to record vote")
	}
}
