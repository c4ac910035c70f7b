package service

import (
	"bytes"
	"context"
	"image/jpeg"
	"io"
	"time"

	"go-content-moderator/internal/cache"
	"go-content-moderator/internal/detector"
	"go-content-moderator/internal/dispatch"
	apperrors "go-content-moderator/internal/errors"
	"go-content-moderator/internal/moderation"
	"go-content-moderator/internal/observer"
	"go-content-moderator/internal/repository"
	"go-content-moderator/internal/storage"
	"go-content-moderator/internal/video"
)

// ModerationService runs the per-item pipeline: detect, decide, and - on
// the event-triggered path - dispatch the policy action. Each call
// processes one content item end to end; the service holds no per-item
// state and is safe for concurrent use when its collaborators are.
type ModerationService interface {
	// ModerateImage produces a verdict for one image's bytes.
	ModerateImage(ctx context.Context, data []byte) (moderation.Verdict, error)

	// ModerateImageURL fetches content by URL and produces a verdict.
	ModerateImageURL(ctx context.Context, contentURL string) (moderation.Verdict, error)

	// ModerateVideo samples, decides, and aggregates one video file.
	ModerateVideo(ctx context.Context, path string) (moderation.VideoResult, error)

	// HandleStoredObject drives the full decide-then-act path for one
	// stored content item, reporting the terminal action.
	HandleStoredObject(ctx context.Context, ref storage.ObjectRef) moderation.Action
}

// VideoOptions bounds video scanning cost.
type VideoOptions struct {
	TargetFrameRate float64
	MaxDuration     time.Duration
	FFmpegPath      string
	FFprobePath     string
}

type moderationService struct {
	det         detector.Detector
	engine      *moderation.Engine
	contentRepo repository.ContentRepository
	store       storage.ObjectStore
	dispatcher  *dispatch.Dispatcher
	verdicts    *cache.VerdictCache
	events      observer.Subject
	videoOpts   VideoOptions
}

// NewModerationService wires the pipeline. store, dispatcher, verdicts and
// events may be nil when the corresponding surface is not in use.
func NewModerationService(
	det detector.Detector,
	engine *moderation.Engine,
	contentRepo repository.ContentRepository,
	store storage.ObjectStore,
	dispatcher *dispatch.Dispatcher,
	verdicts *cache.VerdictCache,
	events observer.Subject,
	videoOpts VideoOptions,
) ModerationService {
	return &moderationService{
		det:         det,
		engine:      engine,
		contentRepo: contentRepo,
		store:       store,
		dispatcher:  dispatcher,
		verdicts:    verdicts,
		events:      events,
		videoOpts:   videoOpts,
	}
}

func (s *moderationService) ModerateImage(ctx context.Context, data []byte) (moderation.Verdict, error) {
	var digest string
	if s.verdicts != nil {
		digest = cache.Digest(data)
		if verdict, ok := s.verdicts.Get(ctx, digest); ok {
			return *verdict, nil
		}
	}

	raw, err := s.det.Detect(ctx, data)
	if err != nil {
		return moderation.Verdict{}, err
	}
	verdict := s.engine.Decide(raw)

	if s.verdicts != nil {
		s.verdicts.Put(ctx, digest, verdict)
	}
	return verdict, nil
}

func (s *moderationService) ModerateImageURL(ctx context.Context, contentURL string) (moderation.Verdict, error) {
	if err := s.contentRepo.ValidateContentURL(contentURL); err != nil {
		return moderation.Verdict{}, err
	}
	data, err := s.contentRepo.FetchContent(ctx, contentURL)
	if err != nil {
		return moderation.Verdict{}, apperrors.NewNetworkError("failed to fetch content", err)
	}
	return s.ModerateImage(ctx, data)
}

// ModerateVideo walks the sampled frames strictly in order; later frames
// depend on the decoder's sequential read position, so there is no
// parallelism inside one video.
func (s *moderationService) ModerateVideo(ctx context.Context, path string) (moderation.VideoResult, error) {
	dec, err := video.NewFFmpegDecoder(ctx, s.videoOpts.FFmpegPath, s.videoOpts.FFprobePath, path)
	if err != nil {
		return moderation.VideoResult{}, err
	}
	defer dec.Close()

	return s.moderateFrames(ctx, dec)
}

// moderateFrames is split from ModerateVideo so tests can feed a stub
// decoder.
func (s *moderationService) moderateFrames(ctx context.Context, dec video.FrameDecoder) (moderation.VideoResult, error) {
	sampler := video.NewSampler(dec, s.videoOpts.TargetFrameRate, s.videoOpts.MaxDuration)
	agg := moderation.NewAggregator(dec.FrameRate())

	for {
		frame, err := sampler.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return moderation.VideoResult{}, err
		}

		encoded, err := encodeJPEG(frame)
		if err != nil {
			return moderation.VideoResult{}, apperrors.NewVideoDecodeError("failed to encode sampled frame", err)
		}
		raw, err := s.det.Detect(ctx, encoded)
		if err != nil {
			return moderation.VideoResult{}, err
		}
		agg.Add(frame.Index, s.engine.Decide(raw))
	}

	return agg.Result(sampler.Duration()), nil
}

func (s *moderationService) HandleStoredObject(ctx context.Context, ref storage.ObjectRef) moderation.Action {
	startTime := time.Now()
	contentRef := ref.Bucket + "/" + ref.Key
	s.publish(ctx, observer.ModerationEvent{
		EventType:  observer.ModerationStarted,
		Timestamp:  startTime,
		ContentRef: contentRef,
	})

	data, err := s.store.Fetch(ctx, ref)
	if err != nil {
		return s.fail(ctx, contentRef, startTime, apperrors.NewStorageError("failed to fetch content", err))
	}

	verdict, err := s.ModerateImage(ctx, data)
	if err != nil {
		return s.fail(ctx, contentRef, startTime, err)
	}

	action := s.dispatcher.Dispatch(ctx, ref, verdict.Forbidden, verdict.Detections)

	switch action.Kind {
	case moderation.ActionQuarantined:
		s.publish(ctx, observer.ModerationEvent{
			EventType:  observer.ContentQuarantined,
			Timestamp:  time.Now(),
			ContentRef: contentRef,
			Success:    true,
			Metadata:   map[string]interface{}{"detections": len(action.Detections)},
		})
	case moderation.ActionVerified:
		s.publish(ctx, observer.ModerationEvent{
			EventType:  observer.ContentVerified,
			Timestamp:  time.Now(),
			ContentRef: contentRef,
			Success:    true,
		})
	case moderation.ActionError:
		return s.fail(ctx, contentRef, startTime, action.Err)
	}

	s.publish(ctx, observer.ModerationEvent{
		EventType:      observer.ModerationCompleted,
		Timestamp:      time.Now(),
		ContentRef:     contentRef,
		ProcessingTime: time.Since(startTime),
		Success:        true,
	})
	return action
}

func (s *moderationService) fail(ctx context.Context, contentRef string, startTime time.Time, err error) moderation.Action {
	s.publish(ctx, observer.ModerationEvent{
		EventType:      observer.ModerationFailed,
		Timestamp:      time.Now(),
		ContentRef:     contentRef,
		ProcessingTime: time.Since(startTime),
		ErrorMessage:   err.Error(),
	})
	return moderation.Action{Kind: moderation.ActionError, Err: err}
}

func (s *moderationService) publish(ctx context.Context, event observer.ModerationEvent) {
	if s.events != nil {
		s.events.NotifyObservers(ctx, event)
	}
}

func encodeJPEG(frame video.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
