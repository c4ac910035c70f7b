package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	apperrors "go-content-moderator/internal/errors"
)

// RemoteDetector calls a model-serving sidecar (typically the exported
// detection model behind a small Python HTTP wrapper) over multipart HTTP.
type RemoteDetector struct {
	inferenceURL string
	client       *http.Client
}

func NewRemoteDetector(inferenceURL string) *RemoteDetector {
	return &RemoteDetector{
		inferenceURL: inferenceURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Detect submits the image bytes and parses the sidecar's detection list.
func (d *RemoteDetector) Detect(ctx context.Context, image []byte) ([]RawDetection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, apperrors.NewDetectionUnavailableError("failed to build inference request", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, apperrors.NewDetectionUnavailableError("failed to build inference request", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.inferenceURL, body)
	if err != nil {
		return nil, apperrors.NewDetectionUnavailableError("failed to build inference request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.NewDetectionUnavailableError("inference service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewDetectionUnavailableError(
			fmt.Sprintf("inference failed with status %d", resp.StatusCode), nil)
	}

	var result struct {
		Detections []RawDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewDetectionUnavailableError("failed to decode inference response", err)
	}
	return result.Detections, nil
}

// CheckHealth probes the sidecar's health endpoint.
func (d *RemoteDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.inferenceURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func (d *RemoteDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
