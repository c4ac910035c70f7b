package detector

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	apperrors "go-content-moderator/internal/errors"
)

// unknownCategoryID is assigned to localized objects whose label does not
// appear in the configured label table. Downstream these are retained as
// unknown and never count as forbidden.
const unknownCategoryID = -1

// VisionDetector runs object localization through the Google Cloud Vision
// API and maps annotation names back onto the configured category ids.
type VisionDetector struct {
	client   *gvision.ImageAnnotatorClient
	labelIDs map[string]int
}

var _ Detector = (*VisionDetector)(nil)

// NewVisionDetector authenticates through Application Default Credentials.
func NewVisionDetector(ctx context.Context, labels map[int]string) (*VisionDetector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	ids := make(map[string]int, len(labels))
	for id, name := range labels {
		ids[strings.ToLower(name)] = id
	}
	return &VisionDetector{client: client, labelIDs: ids}, nil
}

// Detect localizes objects in the image. Vision reports normalized box
// vertices, so the image header is decoded to scale them back to source
// pixel coordinates.
func (v *VisionDetector) Detect(ctx context.Context, data []byte) ([]RawDetection, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDetectionUnavailableError("undecodable image submitted for detection", err)
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_OBJECT_LOCALIZATION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, apperrors.NewDetectionUnavailableError("vision API request failed", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}
	if resp.Responses[0].Error != nil {
		return nil, apperrors.NewDetectionUnavailableError(
			fmt.Sprintf("vision API error: %s", resp.Responses[0].Error.Message), nil)
	}

	annotations := resp.Responses[0].LocalizedObjectAnnotations
	detections := make([]RawDetection, 0, len(annotations))
	for _, obj := range annotations {
		id, ok := v.labelIDs[strings.ToLower(obj.Name)]
		if !ok {
			id = unknownCategoryID
		}
		detections = append(detections, RawDetection{
			CategoryID: id,
			Confidence: float64(obj.Score),
			Box:        scaleBoundingPoly(obj.BoundingPoly, cfg.Width, cfg.Height),
		})
	}
	return detections, nil
}

// scaleBoundingPoly converts normalized vertices into an x1,y1,x2,y2 pixel
// box spanning the polygon's extent.
func scaleBoundingPoly(poly *visionpb.BoundingPoly, width, height int) [4]float64 {
	if poly == nil || len(poly.NormalizedVertices) == 0 {
		return [4]float64{}
	}
	minX, minY := 1.0, 1.0
	maxX, maxY := 0.0, 0.0
	for _, v := range poly.NormalizedVertices {
		x, y := float64(v.X), float64(v.Y)
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	w, h := float64(width), float64(height)
	return [4]float64{minX * w, minY * h, maxX * w, maxY * h}
}

// Close releases the underlying API client.
func (v *VisionDetector) Close() error {
	return v.client.Close()
}
