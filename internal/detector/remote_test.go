package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "go-content-moderator/internal/errors"
)

func TestRemoteDetector_Detect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Expected a multipart request: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("Expected a file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"detections": [
				{"class_id": 0, "confidence": 0.8, "bbox": [10, 10, 50, 50]},
				{"class_id": 1, "confidence": 0.9, "bbox": [0, 0, 200, 400]}
			]
		}`))
	}))
	defer server.Close()

	det := NewRemoteDetector(server.URL)
	defer det.Close()

	raw, err := det.Detect(context.Background(), []byte("image-bytes"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(raw))
	}
	if raw[0].CategoryID != 0 || raw[0].Confidence != 0.8 {
		t.Errorf("Unexpected first detection %+v", raw[0])
	}
	if raw[1].Box != [4]float64{0, 0, 200, 400} {
		t.Errorf("Unexpected bounding box %v", raw[1].Box)
	}
}

func TestRemoteDetector_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detections": []}`))
	}))
	defer server.Close()

	det := NewRemoteDetector(server.URL)
	defer det.Close()

	raw, err := det.Detect(context.Background(), []byte("image-bytes"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("Expected no detections, got %d", len(raw))
	}
}

func TestRemoteDetector_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	det := NewRemoteDetector(server.URL)
	defer det.Close()

	_, err := det.Detect(context.Background(), []byte("image-bytes"))
	if !apperrors.IsType(err, apperrors.ErrorTypeDetectionUnavailable) {
		t.Errorf("Expected DetectionUnavailable error, got %v", err)
	}
}

func TestRemoteDetector_Unreachable(t *testing.T) {
	det := NewRemoteDetector("http://127.0.0.1:1/predict")
	defer det.Close()

	_, err := det.Detect(context.Background(), []byte("image-bytes"))
	if !apperrors.IsType(err, apperrors.ErrorTypeDetectionUnavailable) {
		t.Errorf("Expected DetectionUnavailable error, got %v", err)
	}
}

func TestRemoteDetector_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	det := NewRemoteDetector(server.URL)
	defer det.Close()

	_, err := det.Detect(context.Background(), []byte("image-bytes"))
	if !apperrors.IsType(err, apperrors.ErrorTypeDetectionUnavailable) {
		t.Errorf("Expected DetectionUnavailable error, got %v", err)
	}
}

func TestRemoteDetector_CheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	det := NewRemoteDetector(server.URL)
	defer det.Close()

	if err := det.CheckHealth(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
