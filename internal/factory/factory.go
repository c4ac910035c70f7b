package factory

import (
	"context"
	"fmt"

	"go-content-moderator/internal/config"
	"go-content-moderator/internal/detector"
	"go-content-moderator/internal/notify"
	"go-content-moderator/internal/storage"
)

// DetectorType represents the configured detection backend
type DetectorType string

const (
	// RemoteDetector calls a model-serving sidecar over HTTP
	RemoteDetector DetectorType = "remote"
	// VisionDetector uses the Google Cloud Vision API
	VisionDetector DetectorType = "vision"
)

// StorageType represents the configured object store backend
type StorageType string

const (
	// S3Storage for AWS S3 or compatible endpoints
	S3Storage StorageType = "s3"
	// AzureStorage for Azure Blob Storage
	AzureStorage StorageType = "azure"
)

// NotifierType represents the configured alert channel
type NotifierType string

const (
	// SESNotifier delivers alerts by email through Amazon SES
	SESNotifier NotifierType = "ses"
	// LogNotifier writes alerts to the structured log
	LogNotifier NotifierType = "log"
)

// CreateDetector builds the detection adapter selected by config.
func CreateDetector(ctx context.Context, cfg *config.Config) (detector.Detector, error) {
	switch DetectorType(cfg.DetectorBackend) {
	case RemoteDetector:
		return detector.NewRemoteDetector(cfg.InferenceURL), nil
	case VisionDetector:
		return detector.NewVisionDetector(ctx, cfg.CategoryLabels)
	default:
		return nil, fmt.Errorf("unsupported detector backend: %s", cfg.DetectorBackend)
	}
}

// CreateObjectStore builds the storage backend selected by config.
func CreateObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch StorageType(cfg.StorageBackend) {
	case S3Storage:
		client, err := storage.NewS3Client(ctx, storage.S3Config{
			Region:      cfg.AWSRegion,
			EndpointURL: cfg.S3Endpoint,
			AccessKey:   cfg.AWSAccessKey,
			SecretKey:   cfg.AWSSecretKey,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(client), nil
	case AzureStorage:
		return storage.NewAzureStore(cfg.AzureAccountName, cfg.AzureAccountKey)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

// CreateNotifier builds the alert channel selected by config.
func CreateNotifier(ctx context.Context, cfg *config.Config) (notify.Notifier, error) {
	switch NotifierType(cfg.NotifierBackend) {
	case SESNotifier:
		return notify.NewSESNotifier(ctx, cfg.AWSRegion, cfg.AlertSender, cfg.AlertRecipient)
	case LogNotifier:
		return notify.NewLogNotifier(), nil
	default:
		return nil, fmt.Errorf("unsupported notifier backend: %s", cfg.NotifierBackend)
	}
}
