package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicebank/dto"
	"voicebank/errs"
	"voicebank/repository"
	"voicebank/service"
)

// Handler wires the public HTTP surface to the core services. It performs
// no business logic: parse, call, map error to status.
type Handler struct {
	pipeline *service.Pipeline
	tokens   *service.TokenManager
	cache    *service.LookupCache
	repo     repository.RecordingRepository
}

func New(pipeline *service.Pipeline, tokens *service.TokenManager, cache *service.LookupCache, repo repository.RecordingRepository) *Handler {
	return &Handler{pipeline: pipeline, tokens: tokens, cache: cache, repo: repo}
}

func (h *Handler) Register(r *gin.Engine) {
	recordings := r.Group("/recordings")
	recordings.POST("", h.Upload)
	recordings.GET("/formats", h.Formats)
	recordings.GET("/ages", h.Ages)
	recordings.GET("/categories", h.Categories)
	recordings.GET("/genders", h.Genders)
	recordings.GET("/count", h.Count)
	recordings.GET("/random/:count", h.Random)
	recordings.GET("/token/:id", h.Token)
	recordings.POST("/id/:id/token", h.IssueToken)
	recordings.GET("/id/:id", h.Retrieve)
	recordings.GET("/id/:id/children", h.Children)
}

func fail(c *gin.Context, err error) {
	// Client faults are the caller's problem; everything else is ours and
	// gets logged.
	if !errs.ClientFault(err) {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

// Upload handles the token-gated multipart submission: a "metadata" JSON
// part and an "audio" file part.
func (h *Handler) Upload(c *gin.Context) {
	raw := c.PostForm("metadata")
	if raw == "" {
		fail(c, errs.ErrInvalidInput)
		return
	}

	var metadata dto.UploadMetadata
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}
	defer file.Close()

	result, err := h.pipeline.Process(c.Request.Context(), &service.UploadRequest{
		Token:      metadata.Token,
		Name:       metadata.Name,
		CategoryID: metadata.CategoryID,
		AgeID:      metadata.AgeID,
		GenderID:   metadata.GenderID,
		Location:   metadata.Location,
		Occupation: metadata.Occupation,
		Email:      metadata.Email,
		Audio:      file,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Location", result.URL)
	c.JSON(http.StatusCreated, dto.UploadResponse{
		ID:     result.ID.String(),
		Tokens: result.Tokens,
		Key:    result.ManagementKey,
	})
}

func (h *Handler) IssueToken(c *gin.Context) {
	parentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	token, err := h.tokens.Issue(c.Request.Context(), parentID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TokenResponse{
		ID:       token.ID.String(),
		ParentID: token.ParentID.String(),
	})
}

func (h *Handler) Token(c *gin.Context) {
	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	token, err := h.tokens.Peek(c.Request.Context(), tokenID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		ID:       token.ID.String(),
		ParentID: token.ParentID.String(),
	})
}

func (h *Handler) Retrieve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	detail, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusOK
	if detail.IsDeleted() {
		status = http.StatusGone
	}
	c.JSON(status, dto.FromDetail(detail))
}

func (h *Handler) Children(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	children, err := h.repo.Children(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ChildrenResponse{Parent: id.String(), Children: children})
}

func (h *Handler) Random(c *gin.Context) {
	var params struct {
		Count int `uri:"count" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindUri(&params); err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	recordings, err := h.repo.SampleRandom(c.Request.Context(), params.Count)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RandomResponse{Recordings: recordings})
}

func (h *Handler) Count(c *gin.Context) {
	count, err := h.repo.Count(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

func (h *Handler) Formats(c *gin.Context) {
	snap, err := h.cache.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.FormatEssences())
}

func (h *Handler) Ages(c *gin.Context) {
	snap, err := h.cache.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.EnabledAges())
}

func (h *Handler) Categories(c *gin.Context) {
	snap, err := h.cache.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.EnabledCategories())
}

func (h *Handler) Genders(c *gin.Context) {
	snap, err := h.cache.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.EnabledGenders())
}
