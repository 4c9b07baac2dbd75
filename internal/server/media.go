package server

import (
	"io"
	"net/http"

	"github.com/devlopes006/gestao-clientes/internal/authorization"
	mediadomain "github.com/devlopes006/gestao-clientes/internal/media/domain"
	"github.com/gin-gonic/gin"
)

// 25 MiB keeps uploads comfortably inside one request body.
const maxUploadSize = 25 << 20

// @Summary      Upload Media
// @Description  Store a file in the object store and return its metadata
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Param        file       formData  file    true   "File"
// @Param        client_id  formData  string  false  "Client ID"
// @Success      200  {object}  mediadomain.Media
// @Router       /media [post]
func (s *Server) UploadMedia(c *gin.Context) {
	if s.mediaSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectMedia, authorization.ActionWrite)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "file_required", "file is required"))
		return
	}
	if header.Size <= 0 || header.Size > maxUploadSize {
		AbortWithError(c, newValidationError("file", "invalid_file_size", "file is empty or too large"))
		return
	}
	clientID, err := parseOptionalID(c.PostForm("client_id"))
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.mediaSvc.Upload(c.Request.Context(), auth, mediadomain.UploadRequest{
		ClientID:    clientID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Media
// @Description  List stored files, optionally for one client
// @Tags         media
// @Produce      json
// @Param        client_id  query  string  false  "Client ID"
// @Success      200  {object}  []mediadomain.Media
// @Router       /media [get]
func (s *Server) ListMedia(c *gin.Context) {
	if s.mediaSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectMedia, authorization.ActionRead)
	if !ok {
		return
	}

	clientID, err := parseOptionalID(c.Query("client_id"))
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}

	resp, err := s.mediaSvc.List(c.Request.Context(), auth, clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Media Download URL
// @Description  Return a short-lived presigned GET link
// @Tags         media
// @Produce      json
// @Param        id  path  string  true  "Media ID"
// @Router       /media/{id}/url [get]
func (s *Server) GetMediaURL(c *gin.Context) {
	if s.mediaSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectMedia, authorization.ActionRead)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	url, err := s.mediaSvc.PresignedURL(c.Request.Context(), auth, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
}

// @Summary      Delete Media
// @Description  Remove the object and its metadata
// @Tags         media
// @Produce      json
// @Param        id  path  string  true  "Media ID"
// @Router       /media/{id} [delete]
func (s *Server) DeleteMedia(c *gin.Context) {
	if s.mediaSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectMedia, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.mediaSvc.Delete(c.Request.Context(), auth, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
