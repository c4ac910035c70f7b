package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-content-moderator/internal/moderation"
)

func TestAlertMessage(t *testing.T) {
	detections := []moderation.Detection{
		{Category: "knife", CategoryID: 0, Confidence: 0.85},
		{Category: "weapons", CategoryID: 3, Confidence: 0.6},
	}
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	subject, body := AlertMessage("uploads/cat.jpg", detections, now)

	if subject != "Content Moderation Alert - Forbidden Content Detected" {
		t.Errorf("Unexpected subject %q", subject)
	}
	for _, want := range []string{
		"uploads/cat.jpg",
		"- knife (confidence: 0.85)",
		"- weapons (confidence: 0.60)",
		"moved to the quarantine bucket",
		"2024-03-15 10:30:00",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected body to contain %q, got:\n%s", want, body)
		}
	}
}

func TestAlertMessage_NoDetections(t *testing.T) {
	_, body := AlertMessage("cat.jpg", nil, time.Now())
	if !strings.Contains(body, "cat.jpg") {
		t.Error("Expected body to name the file")
	}
}

func TestLogNotifier_NeverFails(t *testing.T) {
	n := NewLogNotifier()
	if err := n.Notify(context.Background(), "subject", "body"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
