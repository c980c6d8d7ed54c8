package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// UploadTempFile accepts one multipart file and stores it in the temp
// store. The file stays unclaimed until an order customization references
// it, so the TTL sweep can still reclaim it.
func (s *Server) UploadTempFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "file is required"))
		return
	}

	maxBytes := s.storage.Current().MaxFileSizeBytes
	if maxBytes > 0 && header.Size > maxBytes {
		AbortWithError(c, ErrPayloadTooLarge)
		return
	}

	src, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	saved, err := s.files.SaveFile(c.Request.Context(), data, header.Filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": saved})
}

func (s *Server) ServeTempFile(c *gin.Context) {
	content, err := s.files.GetFile(c.Request.Context(), c.Param("filename"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", content.Filename))
	c.Data(http.StatusOK, content.ContentType, content.Data)
}

func (s *Server) ListTempFiles(c *gin.Context) {
	resp, err := s.files.ListFiles(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTempFile(c *gin.Context) {
	deleted, err := s.files.DeleteFile(c.Request.Context(), c.Param("filename"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !deleted {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// CleanupTempFiles runs one sweep pass on demand, outside the scheduler's
// cadence.
func (s *Server) CleanupTempFiles(c *gin.Context) {
	ttl := time.Duration(s.storage.Current().TTLHours) * time.Hour
	result, err := s.files.CleanupOldFiles(c.Request.Context(), ttl)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
