package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/api/transport"
	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/pkg/httpcontext"
	socialUC "github.com/tasknest/backend/usecase/social"
)

type SocialHandler struct {
	baseHandler
	uc *socialUC.UseCase
}

func NewSocialHandler(uc *socialUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Search users not yet befriended
// @Tags social
// @Router /api/v1/users/search [get]
func (h *SocialHandler) Search(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.Search(stdCtx, userID, string(ctx.QueryArgs().Peek("q")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, users)
}

// @Summary Send friend request
// @Tags social
// @Router /api/v1/friends/requests [post]
func (h *SocialHandler) SendRequest(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.FriendRequestPayload
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.UserID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.SendRequest(stdCtx, userID, req.UserID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, nil)
}

// @Summary Accept friend request
// @Tags social
// @Router /api/v1/friends/requests/accept [post]
func (h *SocialHandler) AcceptRequest(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.FriendRequestPayload
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.UserID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Accept(stdCtx, userID, req.UserID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary List friends and pending requests
// @Tags social
// @Router /api/v1/friends [get]
func (h *SocialHandler) Friends(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	lists, err := h.uc.Friends(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, lists)
}

// @Summary Conversation history with a friend
// @Tags social
// @Router /api/v1/messages/{peer} [get]
func (h *SocialHandler) ChatHistory(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	peerID, _ := ctx.UserValue("peer").(string)
	if peerID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing peer id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	messages, err := h.uc.ChatHistory(stdCtx, userID, peerID, parseInt(string(ctx.QueryArgs().Peek("limit")), 100))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, messages)
}

// @Summary Friends' completion progress for today
// @Tags social
// @Router /api/v1/friends/progress [get]
func (h *SocialHandler) Progress(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	progress, err := h.uc.Progress(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, progress)
}

// @Summary Daily leaderboard
// @Tags social
// @Router /api/v1/leaderboard [get]
func (h *SocialHandler) Leaderboard(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.uc.Leaderboard(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entries)
}
