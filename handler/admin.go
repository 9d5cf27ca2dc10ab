package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voicebank/constant"
	"voicebank/dto"
	"voicebank/errs"
	"voicebank/service"
)

// AdminHandler exposes moderation and reference-data management on the
// admin port.
type AdminHandler struct {
	admin *service.AdminService
}

func NewAdmin(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) Register(r *gin.Engine) {
	recordings := r.Group("/admin/recordings")
	recordings.GET("", h.List)
	recordings.GET("/id/:id", h.Get)
	recordings.GET("/key/:key", h.GetByKey)
	recordings.DELETE("/id/:id", h.Delete)

	r.PATCH("/admin/lookup/:table/:id", h.SetLookupEnabled)
}

func (h *AdminHandler) List(c *gin.Context) {
	includeDeleted := c.Query("deleted") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recordings, err := h.admin.List(c.Request.Context(), includeDeleted, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recordings)
}

func (h *AdminHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	detail, err := h.admin.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDetail(detail))
}

func (h *AdminHandler) GetByKey(c *gin.Context) {
	key, err := uuid.Parse(c.Param("key"))
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	detail, err := h.admin.GetByManagementKey(c.Request.Context(), key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDetail(detail))
}

func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	if err := h.admin.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) SetLookupEnabled(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 16)
	if err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	var body struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, errs.ErrInvalidInput)
		return
	}

	table := constant.LookupTable(c.Param("table"))
	if err := h.admin.SetLookupEnabled(c.Request.Context(), table, int16(id), *body.Enabled); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
