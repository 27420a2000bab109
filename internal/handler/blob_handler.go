package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invitely/eventhub/internal/blob"
	"invitely/eventhub/pkg/response"
)

// BlobHandler serves images held by the in-memory blob store through the
// URLs it signs.
type BlobHandler struct {
	store *blob.MemoryStore
}

func NewBlobHandler(store *blob.MemoryStore) *BlobHandler {
	return &BlobHandler{store: store}
}

func (h *BlobHandler) Get(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	obj, err := h.store.Open(path, c.Query("token"))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			response.NotFound(c, "blob not found")
			return
		}
		response.Forbidden(c, "invalid or expired link")
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
