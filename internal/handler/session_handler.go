package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookbot/internal/model"
	"github.com/xxxsen/bookbot/internal/pkg/errcode"
	"github.com/xxxsen/bookbot/internal/pkg/response"
	"github.com/xxxsen/bookbot/internal/poster"
	"github.com/xxxsen/bookbot/internal/service"
)

// BotAPI is the slice of service.BotService the admin surface drives.
type BotAPI interface {
	Start(ctx context.Context, sessionID string) (poster.Snapshot, error)
	Stop(ctx context.Context, sessionID string) (poster.Snapshot, error)
	Reply(ctx context.Context, sessionID string) (*model.Post, error)
	Status(ctx context.Context, sessionID string) (poster.Snapshot, error)
	Snapshots() []poster.Snapshot
	Options(ctx context.Context, sessionID string) (model.GenerationOptions, error)
	StepOption(ctx context.Context, sessionID, field, direction string) (model.GenerationOptions, error)
	ResetOptions(ctx context.Context, sessionID string) (model.GenerationOptions, error)
	Posts(ctx context.Context, sessionID string, limit, offset int) (*service.PostPage, error)
	SeedStats() service.SeedStats
}

type SessionHandler struct {
	bot BotAPI
}

func NewSessionHandler(bot BotAPI) *SessionHandler {
	return &SessionHandler{bot: bot}
}

type stepRequest struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

func (h *SessionHandler) List(c *gin.Context) {
	response.Success(c, h.bot.Snapshots())
}

func (h *SessionHandler) Get(c *gin.Context) {
	snap, err := h.bot.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *SessionHandler) Start(c *gin.Context) {
	snap, err := h.bot.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *SessionHandler) Stop(c *gin.Context) {
	snap, err := h.bot.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *SessionHandler) Reply(c *gin.Context) {
	post, err := h.bot.Reply(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, post)
}

func (h *SessionHandler) GetOptions(c *gin.Context) {
	opts, err := h.bot.Options(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, opts)
}

func (h *SessionHandler) StepOption(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Field == "" || req.Direction == "" {
		response.Error(c, errcode.ErrInvalid, "field and direction required")
		return
	}
	opts, err := h.bot.StepOption(c.Request.Context(), c.Param("id"), req.Field, req.Direction)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, opts)
}

func (h *SessionHandler) ResetOptions(c *gin.Context) {
	opts, err := h.bot.ResetOptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, opts)
}

func (h *SessionHandler) Posts(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		handleError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		handleError(c, err)
		return
	}
	page, err := h.bot.Posts(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *SessionHandler) SeedStats(c *gin.Context) {
	response.Success(c, h.bot.SeedStats())
}
