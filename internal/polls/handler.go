package polls

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pollwise/backend/internal/access"
	"github.com/pollwise/backend/internal/middleware"
	"github.com/pollwise/backend/internal/models"
	"github.com/pollwise/backend/internal/sanitize"
	"github.com/pollwise/backend/pkg/response"
)

// Store is the poll persistence interface used by the handler.
type Store interface {
	Create(ctx context.Context, p *models.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	GetBySlug(ctx context.Context, slug string) (*models.Poll, error)
	List(ctx context.Context) ([]models.Poll, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Poll, error)
	Update(ctx context.Context, id uuid.UUID, question string, options []string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// VoteLedger is the subset of the vote ledger the poll handler needs: result
// counts, per-voter lookups, and the delete cascade.
type VoteLedger interface {
	CountByOption(ctx context.Context, pollID uuid.UUID) (map[int]int64, error)
	HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, int, error)
	DeleteByPoll(ctx context.Context, pollID uuid.UUID) (int64, error)
}

// ViewCache caches rendered poll views and carries the invalidation signal.
type ViewCache interface {
	GetPollView(ctx context.Context, pollID uuid.UUID) ([]byte, bool)
	SetPollView(ctx context.Context, pollID uuid.UUID, body []byte)
	GetListView(ctx context.Context) ([]byte, bool)
	SetListView(ctx context.Context, body []byte)
	InvalidatePoll(ctx context.Context, pollID uuid.UUID)
	InvalidateList(ctx context.Context)
}

// Notifier pushes live tallies to connected viewers.
type Notifier interface {
	BroadcastToPollAndPublish(pollID uuid.UUID, event string, payload interface{})
}

// IntegrityQueue records data-integrity events for later reconciliation.
type IntegrityQueue interface {
	EnqueuePollReconcile(ctx context.Context, pollID uuid.UUID, deletedVotes int64) error
}

// CreateRequest is the body for POST /polls and PUT /polls/:id.
type CreateRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	store  Store
	ledger VoteLedger
	guard  *access.Guard
	cache  ViewCache
	hub    Notifier
	jobs   IntegrityQueue
	logger *zap.Logger
}

// NewHandler creates a polls handler.
func NewHandler(store Store, ledger VoteLedger, guard *access.Guard, cache ViewCache, hub Notifier, jobs IntegrityQueue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, ledger: ledger, guard: guard, cache: cache, hub: hub, jobs: jobs, logger: logger}
}

// Create handles POST /polls (authenticated).
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	question, options, err := ValidatePoll(req.Question, req.Options)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := &models.Poll{
		OwnerID:   userID,
		Question:  question,
		Options:   options,
		ShareSlug: makeShareSlug(req.Question),
	}
	if err := h.store.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("create poll", zap.Error(err))
		response.Internal(c, "failed to create poll")
		return
	}

	h.invalidateList(c.Request.Context())
	response.Created(c, p)
}

// List handles GET /polls (public, cached).
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if h.cache != nil {
		if body, ok := h.cache.GetListView(ctx); ok {
			c.Data(200, "application/json; charset=utf-8", body)
			return
		}
	}

	list, err := h.store.List(ctx)
	if err != nil {
		h.logger.Error("list polls", zap.Error(err))
		response.Internal(c, "failed to list polls")
		return
	}

	body, err := json.Marshal(response.Body{Success: true, Data: list})
	if err != nil {
		response.Internal(c, "failed to encode polls")
		return
	}
	if h.cache != nil {
		h.cache.SetListView(ctx, body)
	}
	c.Data(200, "application/json; charset=utf-8", body)
}

// ListMine handles GET /me/polls (authenticated).
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	list, err := h.store.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list polls by owner", zap.Error(err))
		response.Internal(c, "failed to list polls")
		return
	}
	response.OK(c, list)
}

// Get handles GET /polls/:id (optional auth). The view bundles the poll,
// its current results, and, for authenticated requesters, whether they
// already voted.
func (h *Handler) Get(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}

	ctx := c.Request.Context()
	userID, authenticated := middleware.UserID(c)

	// Anonymous viewers all see the same page, so it is cacheable.
	if !authenticated && h.cache != nil {
		if body, ok := h.cache.GetPollView(ctx, pollID); ok {
			c.Data(200, "application/json; charset=utf-8", body)
			return
		}
	}

	poll, err := h.store.GetByID(ctx, pollID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	h.renderPoll(c, poll, userID, authenticated)
}

// GetBySlug handles GET /p/:slug, the public share link.
func (h *Handler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		response.BadRequest(c, "slug is required")
		return
	}

	poll, err := h.store.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	userID, authenticated := middleware.UserID(c)
	h.renderPoll(c, poll, userID, authenticated)
}

// Results handles GET /polls/:id/results (public).
func (h *Handler) Results(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}

	ctx := c.Request.Context()
	poll, err := h.store.GetByID(ctx, pollID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	counts, err := h.ledger.CountByOption(ctx, poll.ID)
	if err != nil {
		h.logger.Error("count votes", zap.Error(err), zap.String("poll_id", poll.ID.String()))
		response.Internal(c, "failed to tally votes")
		return
	}
	response.OK(c, TallyResults(poll.Options, counts))
}

// Update handles PUT /polls/:id (owner or admin). Question and options are
// replaced wholesale after validation.
func (h *Handler) Update(c *gin.Context) {
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

	ctx := c.Request.Context()
	poll, err := h.store.GetByID(ctx, pollID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	if !h.guard.CanMutate(poll, userID, middleware.UserEmail(c)) {
		response.Forbidden(c, "only the poll owner or an admin can modify this poll")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	question, options, err := ValidatePoll(req.Question, req.Options)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.store.Update(ctx, pollID, question, options); err != nil {
		h.respondLookupError(c, err)
		return
	}
	poll.Question = question
	poll.Options = options

	h.invalidate(ctx, pollID)
	if h.hub != nil {
		h.hub.BroadcastToPollAndPublish(pollID, "poll_updated", poll)
	}
	response.OK(c, poll)
}

// Delete handles DELETE /polls/:id (owner or admin). Votes are removed
// first, then the poll row; the two steps are not atomic, and a failure in
// between is a data-integrity event that must not be swallowed.
func (h *Handler) Delete(c *gin.Context) {
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

	ctx := c.Request.Context()
	poll, err := h.store.GetByID(ctx, pollID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	if !h.guard.CanMutate(poll, userID, middleware.UserEmail(c)) {
		response.Forbidden(c, "only the poll owner or an admin can delete this poll")
		return
	}

	deleted, err := h.ledger.DeleteByPoll(ctx, pollID)
	if err != nil {
		h.logger.Error("delete poll votes", zap.Error(err), zap.String("poll_id", pollID.String()))
		response.Internal(c, "failed to delete poll votes")
		return
	}

	if err := h.store.Delete(ctx, pollID); err != nil {
		// Votes are already gone but the poll row remains. Flag it for
		// reconciliation instead of pretending the delete failed cleanly.
		h.logger.Error("poll delete left orphaned record",
			zap.Error(err),
			zap.String("poll_id", pollID.String()),
			zap.Int64("votes_deleted", deleted))
		if h.jobs != nil {
			if qErr := h.jobs.EnqueuePollReconcile(ctx, pollID, deleted); qErr != nil {
				h.logger.Error("enqueue poll reconcile", zap.Error(qErr), zap.String("poll_id", pollID.String()))
			}
		}
		response.Inconsistent(c, "poll left in inconsistent state: votes removed but poll record remains; flagged for reconciliation")
		return
	}

	h.invalidate(ctx, pollID)
	if h.hub != nil {
		h.hub.BroadcastToPollAndPublish(pollID, "poll_deleted", gin.H{"id": pollID})
	}
	response.OK(c, gin.H{"id": pollID, "deleted": true, "votes_deleted": deleted})
}

func (h *Handler) renderPoll(c *gin.Context, poll *models.Poll, userID uuid.UUID, authenticated bool) {
	ctx := c.Request.Context()
	counts, err := h.ledger.CountByOption(ctx, poll.ID)
	if err != nil {
		h.logger.Error("count votes", zap.Error(err), zap.String("poll_id", poll.ID.String()))
		response.Internal(c, "failed to tally votes")
		return
	}

	view := gin.H{
		"poll":    poll,
		"results": TallyResults(poll.Options, counts),
	}
	if authenticated {
		voted, optionIndex, err := h.ledger.HasVoted(ctx, poll.ID, userID)
		if err != nil {
			h.logger.Error("has voted lookup", zap.Error(err), zap.String("poll_id", poll.ID.String()))
			response.Internal(c, "failed to check vote status")
			return
		}
		view["has_voted"] = voted
		if voted {
			view["voted_option"] = optionIndex
		}
	}

	body, err := json.Marshal(response.Body{Success: true, Data: view})
	if err != nil {
		response.Internal(c, "failed to encode poll")
		return
	}
	if !authenticated && h.cache != nil {
		h.cache.SetPollView(ctx, poll.ID, body)
	}
	c.Data(200, "application/json; charset=utf-8", body)
}

func (h *Handler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "poll not found")
		return
	}
	h.logger.Error("poll lookup", zap.Error(err))
	response.Internal(c, "failed to retrieve poll")
}

func (h *Handler) invalidate(ctx context.Context, pollID uuid.UUID) {
	if h.cache != nil {
		h.cache.InvalidatePoll(ctx, pollID)
	}
}

func (h *Handler) invalidateList(ctx context.Context) {
	if h.cache != nil {
		h.cache.InvalidateList(ctx)
	}
}

// makeShareSlug derives a URL-safe slug from the sanitized question, with a
// random suffix so similar questions do not collide.
func makeShareSlug(question string) string {
	base := strings.ToLower(sanitize.Slug(question))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == ' ' || r == '.' || r == '_'
	})
	slug := strings.Join(words, "-")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	suffix := uuid.New().String()[:8]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
