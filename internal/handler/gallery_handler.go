package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invitely/eventhub/internal/service"
	"invitely/eventhub/pkg/response"
)

// Room for base64 expansion and the JSON envelope around imageData.
const uploadBodyOverhead = 64 << 10

type GalleryHandler struct {
	galleryService service.GalleryService
	maxBodyBytes   int64
}

func NewGalleryHandler(galleryService service.GalleryService, maxUploadBytes int64) *GalleryHandler {
	return &GalleryHandler{
		galleryService: galleryService,
		maxBodyBytes:   maxUploadBytes/3*4 + uploadBodyOverhead,
	}
}

type UploadImageRequest struct {
	ImageData string `json:"imageData" binding:"required"`
}

func (h *GalleryHandler) Upload(c *gin.Context) {
	p, err := getParticipant(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	var req UploadImageRequest
	if !bindJSON(c, &req) {
		return
	}

	image, err := h.galleryService.Upload(c.Request.Context(), c.Param("eventId"), p, req.ImageData)
	if err != nil {
		writeError(c, err, "upload image failed")
		return
	}
	response.Success(c, gin.H{"image": image})
}

func (h *GalleryHandler) List(c *gin.Context) {
	images, err := h.galleryService.List(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		writeError(c, err, "get gallery failed")
		return
	}
	response.Success(c, gin.H{"gallery": images})
}

type ToggleLikeRequest struct {
	ImageID string `json:"imageId" binding:"required"`
}

func (h *GalleryHandler) ToggleLike(c *gin.Context) {
	p, err := getParticipant(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req ToggleLikeRequest
	if !bindJSON(c, &req) {
		return
	}

	image, err := h.galleryService.ToggleLike(c.Request.Context(), c.Param("eventId"), req.ImageID, p)
	if err != nil {
		writeError(c, err, "like image failed")
		return
	}
	response.Success(c, gin.H{"image": image})
}

type AddCommentRequest struct {
	ImageID string `json:"imageId" binding:"required"`
	Text    string `json:"text"`
	// Comment is accepted as an alias of Text.
	Comment string `json:"comment"`
}

func (h *GalleryHandler) AddComment(c *gin.Context) {
	p, err := getParticipant(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req AddCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	text := req.Text
	if text == "" {
		text = req.Comment
	}

	comment, err := h.galleryService.AddComment(c.Request.Context(), c.Param("eventId"), req.ImageID, p, text)
	if err != nil {
		writeError(c, err, "comment failed")
		return
	}
	response.Success(c, gin.H{"comment": comment})
}

func (h *GalleryHandler) Delete(c *gin.Context) {
	p, err := getParticipant(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	if err := h.galleryService.Delete(c.Request.Context(), c.Param("eventId"), c.Param("imageId"), p); err != nil {
		writeError(c, err, "delete image failed")
		return
	}
	response.Success(c, gin.H{"success": true})
}
