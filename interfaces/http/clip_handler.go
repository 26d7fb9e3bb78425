package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"streamclips/domain/model"
	"streamclips/usecase"
)

type IClipHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
}

type ClipHandler struct {
	clipUsecase usecase.IClipUsecase
}

func NewClipHandler(clipUsecase usecase.IClipUsecase) IClipHandler {
	return &ClipHandler{clipUsecase: clipUsecase}
}

func (h *ClipHandler) List(c *gin.Context) {
	status := model.ClipStatus(c.Query("status"))
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	clips, total, err := h.clipUsecase.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clips, "total": total})
}

func (h *ClipHandler) Get(c *gin.Context) {
	clip, publications, err := h.clipUsecase.Get(c.Request.Context(), c.Param("clipId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clip, "publications": publications})
}

func (h *ClipHandler) Approve(c *gin.Context) {
	if err := h.clipUsecase.Approve(c.Request.Context(), c.Param("clipId")); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "clip approved"})
}

func (h *ClipHandler) Reject(c *gin.Context) {
	if err := h.clipUsecase.Reject(c.Request.Context(), c.Param("clipId")); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "clip rejected"})
}
