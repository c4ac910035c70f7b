package dispatch

import (
	"context"
	"fmt"
	"time"

	apperrors "go-content-moderator/internal/errors"
	"go-content-moderator/internal/logger"
	"go-content-moderator/internal/moderation"
	"go-content-moderator/internal/notify"
	"go-content-moderator/internal/storage"

	"github.com/sirupsen/logrus"
)

// VerifiedTagKey and VerifiedTagValue mark compliant content in place.
const (
	VerifiedTagKey   = "ContentModeration"
	VerifiedTagValue = "Verified"

	quarantinePrefix = "quarantined/"
)

// Dispatcher turns a content-level verdict into the policy action:
// quarantine forbidden content, tag compliant content as verified, alert
// operators. One content item transitions exactly once per Dispatch call;
// there is no retry loop here.
type Dispatcher struct {
	store            storage.ObjectStore
	notifier         notify.Notifier
	quarantineBucket string

	// now is injectable so quarantine keys are deterministic under test.
	now func() time.Time
}

func NewDispatcher(store storage.ObjectStore, notifier notify.Notifier, quarantineBucket string) *Dispatcher {
	return &Dispatcher{
		store:            store,
		notifier:         notifier,
		quarantineBucket: quarantineBucket,
		now:              time.Now,
	}
}

// Dispatch applies the policy action for one content item and reports the
// terminal outcome. Errors never escape as Go errors: callers branch on
// Action.Kind, with Action.Err carrying detail for ActionError.
func (d *Dispatcher) Dispatch(ctx context.Context, ref storage.ObjectRef, forbidden bool, detections []moderation.Detection) moderation.Action {
	if forbidden {
		return d.quarantine(ctx, ref, detections)
	}
	return d.verify(ctx, ref, detections)
}

// quarantine duplicates the content into the quarantine bucket under a
// time-ordered key, deletes the original, then alerts operators. A failed
// copy aborts the workflow; a failed delete leaves the content in both
// locations, which is the accepted degraded state - the original stays
// reachable for a retry or audit pass instead of being silently lost.
func (d *Dispatcher) quarantine(ctx context.Context, ref storage.ObjectRef, detections []moderation.Detection) moderation.Action {
	dst := storage.ObjectRef{
		Bucket: d.quarantineBucket,
		Key:    d.QuarantineKey(ref.Key),
	}

	if err := d.store.Copy(ctx, ref, dst); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"bucket": ref.Bucket,
			"key":    ref.Key,
			"reason": apperrors.CopyFailed,
		}).Error("Quarantine copy failed")
		return moderation.Action{
			Kind:       moderation.ActionError,
			Detections: detections,
			Err:        apperrors.NewActionFailedError(apperrors.CopyFailed, "failed to copy content to quarantine", err),
		}
	}

	if err := d.store.Delete(ctx, ref); err != nil {
		// Content now exists in both locations. Not rolled back: the copy
		// already secured the evidence and the original stays deletable by
		// a later pass.
		logger.WithError(err).WithFields(logrus.Fields{
			"bucket":         ref.Bucket,
			"key":            ref.Key,
			"quarantine_key": dst.Key,
			"reason":         apperrors.DeleteFailed,
		}).Warn("Quarantine delete failed, content present in both locations")
	}

	d.alert(ctx, ref.Key, detections)

	return moderation.Action{
		Kind:       moderation.ActionQuarantined,
		Detections: detections,
	}
}

// verify tags the content in place. Tagging is advisory metadata; a
// failure is logged and the content still reports as verified.
func (d *Dispatcher) verify(ctx context.Context, ref storage.ObjectRef, detections []moderation.Detection) moderation.Action {
	if err := d.store.Tag(ctx, ref, VerifiedTagKey, VerifiedTagValue); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"bucket": ref.Bucket,
			"key":    ref.Key,
			"reason": apperrors.TagFailed,
		}).Warn("Verified tagging failed")
	}

	return moderation.Action{
		Kind:       moderation.ActionVerified,
		Detections: detections,
	}
}

// alert notifies operators about a quarantine. Best effort: a notification
// failure never changes the action outcome.
func (d *Dispatcher) alert(ctx context.Context, objectKey string, detections []moderation.Detection) {
	subject, body := notify.AlertMessage(objectKey, detections, d.now())
	if err := d.notifier.Notify(ctx, subject, body); err != nil {
		logger.WithError(err).WithField("key", objectKey).Warn("Alert notification failed")
	}
}

// QuarantineKey builds the destination key: a time-ordered prefix avoids
// collisions and preserves arrival order for audit.
func (d *Dispatcher) QuarantineKey(originalKey string) string {
	return fmt.Sprintf("%s%s_%s", quarantinePrefix, d.now().Format("20060102_150405"), originalKey)
}

// WithClock overrides the dispatcher's clock. Test hook.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}
