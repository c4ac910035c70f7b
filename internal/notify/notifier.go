package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-content-moderator/internal/logger"
	"go-content-moderator/internal/moderation"

	"github.com/sirupsen/logrus"
)

// Notifier delivers operator alerts. Notification delivery is best effort
// everywhere in the pipeline: failures are logged by the caller and never
// change a moderation outcome.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// AlertMessage renders the operator alert for quarantined content: one
// line per offending detection plus the quarantine disposition.
func AlertMessage(objectKey string, detections []moderation.Detection, now time.Time) (subject, body string) {
	var summary strings.Builder
	for _, d := range detections {
		fmt.Fprintf(&summary, "- %s (confidence: %.2f)\n", d.Category, d.Confidence)
	}

	subject = "Content Moderation Alert - Forbidden Content Detected"
	body = fmt.Sprintf(
		"Forbidden content detected in file: %s\n\nDetections:\n%s\nThe file has been moved to the quarantine bucket.\nTimestamp: %s\n",
		objectKey,
		summary.String(),
		now.Format("2006-01-02 15:04:05"),
	)
	return subject, body
}

// LogNotifier writes alerts to the structured log. Used for local runs and
// as the fallback when no delivery channel is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, subject, body string) error {
	logger.WithFields(logrus.Fields{
		"subject": subject,
		"body":    body,
	}).Warn("Moderation alert")
	return nil
}
