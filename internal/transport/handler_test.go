package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-content-moderator/internal/config"
	apperrors "go-content-moderator/internal/errors"
	"go-content-moderator/internal/moderation"
	"go-content-moderator/internal/observer"
	"go-content-moderator/internal/storage"
	"go-content-moderator/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubService returns canned results and records inputs.
type stubService struct {
	verdict     moderation.Verdict
	videoResult moderation.VideoResult
	err         error
	fetchedURL  string
	deadline    time.Time
}

func (s *stubService) ModerateImage(ctx context.Context, data []byte) (moderation.Verdict, error) {
	s.deadline, _ = ctx.Deadline()
	return s.verdict, s.err
}

func (s *stubService) ModerateImageURL(ctx context.Context, contentURL string) (moderation.Verdict, error) {
	s.fetchedURL = contentURL
	return s.verdict, s.err
}

func (s *stubService) ModerateVideo(ctx context.Context, path string) (moderation.VideoResult, error) {
	return s.videoResult, s.err
}

func (s *stubService) HandleStoredObject(ctx context.Context, ref storage.ObjectRef) moderation.Action {
	return moderation.Action{Kind: moderation.ActionError, Err: errors.New("not implemented")}
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:     10 * time.Second,
		AnalysisTimeout:    5 * time.Second,
		MaxRequestBodySize: 10 << 20,
	}
}

func newTestHandler(svc *stubService) http.Handler {
	return NewHandler(svc, observer.NewMetricsObserver(), testConfig())
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("Failed to build multipart body: %v", err)
	}
	part.Write(data)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["status"] != "available" {
		t.Errorf("Unexpected status %v", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if _, ok := body["total_items"]; !ok {
		t.Error("Expected total_items counter in metrics")
	}
}

func TestAnalyzeImage_MultipartUpload(t *testing.T) {
	svc := &stubService{verdict: moderation.Verdict{
		Forbidden: true,
		Detections: []moderation.Detection{
			{Category: "knife", CategoryID: 0, Confidence: 0.8},
		},
	}}
	handler := newTestHandler(svc)

	body, contentType := multipartUpload(t, "file", "cat.jpg", "image/jpeg", []byte("image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.ImageModerationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if !resp.Success || !resp.HasForbiddenContent || resp.TotalDetections != 1 {
		t.Errorf("Unexpected response %+v", resp)
	}
	if resp.Filename != "cat.jpg" {
		t.Errorf("Expected filename cat.jpg, got %q", resp.Filename)
	}
}

func TestAnalyzeImage_RejectsNonImageUpload(t *testing.T) {
	handler := newTestHandler(&stubService{})

	body, contentType := multipartUpload(t, "file", "report.pdf", "application/pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeImage_MissingFile(t *testing.T) {
	handler := newTestHandler(&stubService{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeImage_URLRequest(t *testing.T) {
	svc := &stubService{verdict: moderation.Verdict{Detections: []moderation.Detection{}}}
	handler := newTestHandler(svc)

	payload := strings.NewReader(`{"url": "https://example.com/cat.jpg"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.fetchedURL != "https://example.com/cat.jpg" {
		t.Errorf("Expected URL to be passed through, got %q", svc.fetchedURL)
	}
}

func TestAnalyzeImage_InvalidURLRequest(t *testing.T) {
	handler := newTestHandler(&stubService{})

	payload := strings.NewReader(`{"url": "not a url"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeImage_DetectionUnavailable(t *testing.T) {
	svc := &stubService{err: apperrors.NewDetectionUnavailableError("inference service unreachable", nil)}
	handler := newTestHandler(svc)

	body, contentType := multipartUpload(t, "file", "cat.jpg", "image/jpeg", []byte("image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
}

func TestAnalyzeVideo_RejectsNonVideoUpload(t *testing.T) {
	handler := newTestHandler(&stubService{})

	body, contentType := multipartUpload(t, "file", "cat.jpg", "image/jpeg", []byte("image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/analyze-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeVideo_DecodeFailure(t *testing.T) {
	svc := &stubService{err: apperrors.NewVideoDecodeError("failed to probe video", nil)}
	handler := newTestHandler(svc)

	body, contentType := multipartUpload(t, "file", "clip.mp4", "video/mp4", []byte("not-a-video"))
	req := httptest.NewRequest(http.MethodPost, "/analyze-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", rec.Code)
	}
}

func TestAnalyzeVideo_Success(t *testing.T) {
	svc := &stubService{videoResult: moderation.VideoResult{
		ProcessedFrames: []moderation.FrameResult{
			{FrameIndex: 0, Timestamp: 0},
			{FrameIndex: 24, Timestamp: 1},
		},
		ForbiddenFrames: []moderation.FrameResult{},
		Duration:        1.0,
	}}
	handler := newTestHandler(svc)

	body, contentType := multipartUpload(t, "file", "clip.mp4", "video/mp4", []byte("video-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/analyze-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.VideoModerationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if resp.TotalFramesProcessed != 2 || resp.HasForbiddenContent {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("Expected request id to round-trip, got %q", got)
	}
}

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a generated request id")
	}
}

func TestAnalyzeImage_BoundedByAnalysisTimeout(t *testing.T) {
	svc := &stubService{verdict: moderation.Verdict{Detections: []moderation.Detection{}}}
	handler := newTestHandler(svc)

	body, contentType := multipartUpload(t, "file", "cat.jpg", "image/jpeg", []byte("image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	start := time.Now()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if svc.deadline.IsZero() {
		t.Fatal("Expected the analysis call to carry a deadline")
	}
	// testConfig sets AnalysisTimeout well below RequestTimeout; the
	// pipeline must be bounded by the shorter one.
	if remaining := svc.deadline.Sub(start); remaining > testConfig().AnalysisTimeout+time.Second {
		t.Errorf("Deadline %s exceeds the analysis timeout", remaining)
	}
}
