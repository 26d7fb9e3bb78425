package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"streamclips/domain/model"
	"streamclips/infrastructure/logger"
	"streamclips/usecase"
)

type IStreamerHandler interface {
	Register(c *gin.Context)
	List(c *gin.Context)
	ActiveStreams(c *gin.Context)
}

type StreamerHandler struct {
	streamerUsecase usecase.IStreamerUsecase
}

func NewStreamerHandler(streamerUsecase usecase.IStreamerUsecase) IStreamerHandler {
	return &StreamerHandler{streamerUsecase: streamerUsecase}
}

func (h *StreamerHandler) Register(c *gin.Context) {
	var req model.ReqRegisterStreamer
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error("Invalid streamer registration payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	streamer, err := h.streamerUsecase.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": streamer})
}

func (h *StreamerHandler) List(c *gin.Context) {
	streamers, err := h.streamerUsecase.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": streamers})
}

func (h *StreamerHandler) ActiveStreams(c *gin.Context) {
	streams, err := h.streamerUsecase.ActiveStreams(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": streams})
}
