package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Whizard545/roomsync-prod/internal/auth"
	"github.com/Whizard545/roomsync-prod/internal/config"
	"github.com/Whizard545/roomsync-prod/internal/middleware"
	"github.com/Whizard545/roomsync-prod/internal/repository"
)

// OfficeMapHandler serves the office floor map: exactly one version is
// active at a time, uploads atomically replace the active version and
// previous versions are preserved as history.
type OfficeMapHandler struct {
	Maps *repository.OfficeMapRepo
	Gate *auth.Gate
	Cfg  config.Config
}

// NewOfficeMapHandler constructs an OfficeMapHandler. Dependencies must
// be non-nil.
func NewOfficeMapHandler(maps *repository.OfficeMapRepo, gate *auth.Gate, cfg config.Config) *OfficeMapHandler {
	if maps == nil || gate == nil {
		panic("nil dependency passed to NewOfficeMapHandler")
	}
	return &OfficeMapHandler{Maps: maps, Gate: gate, Cfg: cfg}
}

// GetOfficeMap handles GET /v1/office-map: the active version, or a
// null body when no map has ever been uploaded.
func (h *OfficeMapHandler) GetOfficeMap(c echo.Context) error {
	if _, ok := middleware.PrincipalFrom(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	current, err := h.Maps.Current(c.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("office map lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load office map"})
	}
	// current may be nil, which serializes as a JSON null.
	return c.JSON(http.StatusOK, current)
}

// History handles GET /v1/admin/office-map/history: every uploaded
// version, newest first, for admins.
func (h *OfficeMapHandler) History(c echo.Context) error {
	if _, ok := requireAdmin(c, h.Gate); !ok {
		return nil
	}
	versions, err := h.Maps.History(c.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("office map history failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load history"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": versions})
}

// Upload handles POST /v1/admin/office-map: a multipart form with an
// image file under the "file" field. The file must declare an image/*
// content type and fit the configured size cap. The file is written to
// disk first; only then does the single transaction deactivate the old
// version and insert the new active one, so a failed write never
// leaves the map without an active version.
func (h *OfficeMapHandler) Upload(c echo.Context) error {
	if _, ok := requireAdmin(c, h.Gate); !ok {
		return nil
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file field is required"})
	}
	if fileHeader.Size > h.Cfg.MaxUploadBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "file too large",
			"max_bytes": h.Cfg.MaxUploadBytes,
		})
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file must be an image"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read upload"})
	}
	defer src.Close()

	if err := os.MkdirAll(h.Cfg.UploadPath, 0o755); err != nil {
		logrus.WithError(err).Error("office map upload: mkdir failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store file"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	filename := fmt.Sprintf("office-map-%d%s", time.Now().UnixNano(), ext)
	dstPath := filepath.Join(h.Cfg.UploadPath, filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		logrus.WithError(err).Error("office map upload: file create failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store file"})
	}
	// LimitReader backs the declared-size check with a hard byte cap.
	written, err := io.Copy(dst, io.LimitReader(src, h.Cfg.MaxUploadBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dstPath)
		logrus.WithError(err).Error("office map upload: file write failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store file"})
	}
	if written > h.Cfg.MaxUploadBytes {
		_ = os.Remove(dstPath)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "file too large",
			"max_bytes": h.Cfg.MaxUploadBytes,
		})
	}

	fileURL := "/uploads/" + filename
	published, err := h.Maps.Publish(c.Request().Context(), filename, fileHeader.Filename, fileURL)
	if err != nil {
		_ = os.Remove(dstPath)
		logrus.WithError(err).Error("office map upload: publish failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to publish office map"})
	}
	return c.JSON(http.StatusCreated, published)
}
