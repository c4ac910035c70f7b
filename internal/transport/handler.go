package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"go-content-moderator/internal/config"
	apperrors "go-content-moderator/internal/errors"
	"go-content-moderator/internal/logger"
	"go-content-moderator/internal/moderation"
	"go-content-moderator/internal/observer"
	"go-content-moderator/internal/service"
	"go-content-moderator/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// URLAnalysisRequest is the JSON alternative to a multipart upload: the
// content is fetched server side from the given URL.
type URLAnalysisRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHandler(svc service.ModerationService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		requestID(),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", moderationMetrics(metrics))
	r.POST("/analyze-image", analyzeImage(svc, cfg))
	r.POST("/analyze-video", analyzeVideo(svc, cfg))

	return r
}

// analyzeImage accepts a multipart image upload or a JSON body with a URL,
// and responds with the Verdict-shaped result.
func analyzeImage(svc service.ModerationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AnalysisTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
			"ip":         c.ClientIP(),
		}).Info("Processing image analysis request")

		var (
			verdict  moderation.Verdict
			filename string
		)

		if strings.HasPrefix(c.ContentType(), "multipart/") {
			fileHeader, err := c.FormFile("file")
			if err != nil {
				respondError(c, http.StatusBadRequest, "missing file upload", err)
				return
			}
			if !hasContentTypePrefix(fileHeader, "image/") {
				respondError(c, http.StatusBadRequest, "file must be an image",
					apperrors.NewValidationError("unsupported content type", nil))
				return
			}
			data, err := readUpload(fileHeader)
			if err != nil {
				respondError(c, http.StatusBadRequest, "unreadable file upload", err)
				return
			}
			filename = fileHeader.Filename
			v, err := svc.ModerateImage(ctx, data)
			if err != nil {
				respondAnalysisError(c, err)
				return
			}
			verdict = v
		} else {
			var req URLAnalysisRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "invalid request format", err)
				return
			}
			filename = req.URL
			v, err := svc.ModerateImageURL(ctx, req.URL)
			if err != nil {
				respondAnalysisError(c, err)
				return
			}
			verdict = v
		}

		logger.WithFields(logrus.Fields{
			"filename":              filename,
			"processing_time_ms":    time.Since(startTime).Milliseconds(),
			"has_forbidden_content": verdict.Forbidden,
			"total_detections":      len(verdict.Detections),
		}).Info("Image analysis completed successfully")

		c.JSON(http.StatusOK, models.NewImageModerationResponse(filename, verdict))
	}
}

// analyzeVideo accepts a multipart video upload, spools it to a temp file
// for the decoder, and responds with the VideoResult-shaped result.
func analyzeVideo(svc service.ModerationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AnalysisTimeout)
		defer cancel()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, "missing file upload", err)
			return
		}
		if !hasContentTypePrefix(fileHeader, "video/") {
			respondError(c, http.StatusBadRequest, "file must be a video",
				apperrors.NewValidationError("unsupported content type", nil))
			return
		}

		tmpPath, err := spoolUpload(fileHeader)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to store upload", err)
			return
		}
		defer os.Remove(tmpPath)

		result, err := svc.ModerateVideo(ctx, tmpPath)
		if err != nil {
			respondAnalysisError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"filename":              fileHeader.Filename,
			"processing_time_ms":    time.Since(startTime).Milliseconds(),
			"frames_processed":      len(result.ProcessedFrames),
			"has_forbidden_content": result.HasForbiddenContent(),
		}).Info("Video analysis completed successfully")

		c.JSON(http.StatusOK, models.NewVideoModerationResponse(fileHeader.Filename, result))
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func moderationMetrics(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func hasContentTypePrefix(fh *multipart.FileHeader, prefix string) bool {
	return strings.HasPrefix(fh.Header.Get("Content-Type"), prefix)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// spoolUpload writes the upload to a temp file the video decoder can seek.
func spoolUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "moderation-*.mp4")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// respondAnalysisError maps pipeline errors onto their taxonomy status
// codes; internal detail is attached, never swallowed into a success.
func respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, "analysis timed out", err)
	default:
		respondError(c, apperrors.GetStatusCode(err), "analysis failed", err)
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
