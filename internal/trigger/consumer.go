// Package trigger drives the event-triggered moderation path: it consumes
// S3 ObjectCreated notifications from an SQS queue and runs the full
// decide-then-act pipeline for each newly arrived content item.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-content-moderator/internal/logger"
	"go-content-moderator/internal/moderation"
	"go-content-moderator/internal/service"
	"go-content-moderator/internal/storage"
	"go-content-moderator/internal/worker"
	"go-content-moderator/pkg/validation"
)

// S3Event is the notification payload S3 delivers through SQS.
type S3Event struct {
	Records []S3EventRecord `json:"Records"`
}

type S3EventRecord struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// ParseS3Event decodes the notification body. Object keys arrive
// URL-encoded with spaces as '+', so they are unescaped here.
func ParseS3Event(body []byte) (S3Event, error) {
	var event S3Event
	if err := json.Unmarshal(body, &event); err != nil {
		return S3Event{}, fmt.Errorf("malformed S3 event: %w", err)
	}
	for i := range event.Records {
		key, err := url.QueryUnescape(strings.ReplaceAll(event.Records[i].S3.Object.Key, "+", "%20"))
		if err != nil {
			return S3Event{}, fmt.Errorf("malformed object key %q: %w", event.Records[i].S3.Object.Key, err)
		}
		event.Records[i].S3.Object.Key = key
	}
	return event, nil
}

// NewSQSClient connects with the default credential chain.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sqs.NewFromConfig(awsCfg), nil
}

// Consumer long-polls the queue and fans items out to the worker pool.
// Each content item is handled by one worker end to end; a handling error
// leaves the message in flight for redelivery.
type Consumer struct {
	client      *sqs.Client
	queueURL    string
	svc         service.ModerationService
	pool        *worker.Pool
	pollers     int
	itemTimeout time.Duration
}

// NewConsumer wires the queue consumer. itemTimeout bounds the pipeline
// for a single content item; 0 disables the deadline.
func NewConsumer(client *sqs.Client, queueURL string, svc service.ModerationService, pool *worker.Pool, pollers int, itemTimeout time.Duration) *Consumer {
	if pollers <= 0 {
		pollers = 1
	}
	return &Consumer{
		client:      client,
		queueURL:    queueURL,
		svc:         svc,
		pool:        pool,
		pollers:     pollers,
		itemTimeout: itemTimeout,
	}
}

// Run blocks until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.pool.Start()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.pollers; i++ {
		g.Go(func() error {
			return c.poll(ctx)
		})
	}
	err := g.Wait()
	c.pool.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Consumer) poll(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WithError(err).Warn("SQS receive failed")
			continue
		}

		for _, msg := range out.Messages {
			body := aws.ToString(msg.Body)
			receipt := aws.ToString(msg.ReceiptHandle)
			c.pool.Submit(func() {
				if err := c.HandleEvent(ctx, []byte(body)); err != nil {
					logger.WithError(err).Error("Event handling failed, leaving message for redelivery")
					return
				}
				if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
					QueueUrl:      aws.String(c.queueURL),
					ReceiptHandle: aws.String(receipt),
				}); err != nil {
					logger.WithError(err).Warn("Failed to delete handled message")
				}
			})
		}
	}
}

// HandleEvent processes every record of one notification. Keys without a
// recognized image extension are skipped without invoking detection.
func (c *Consumer) HandleEvent(ctx context.Context, body []byte) error {
	event, err := ParseS3Event(body)
	if err != nil {
		// Unparseable payloads would loop forever on redelivery; log and
		// consume them.
		logger.WithError(err).Error("Dropping malformed event payload")
		return nil
	}

	for _, record := range event.Records {
		bucket := record.S3.Bucket.Name
		key := record.S3.Object.Key

		if !validation.IsImageKey(key) {
			logger.WithFields(logrus.Fields{
				"bucket": bucket,
				"key":    key,
			}).Info("Skipping non-image file")
			continue
		}

		logger.WithFields(logrus.Fields{
			"bucket": bucket,
			"key":    key,
		}).Info("Processing image")

		action := c.handleRecord(ctx, storage.ObjectRef{Bucket: bucket, Key: key})
		if action.Kind == moderation.ActionError {
			return action.Err
		}
	}
	return nil
}

// handleRecord runs one content item under the per-item deadline.
func (c *Consumer) handleRecord(ctx context.Context, ref storage.ObjectRef) moderation.Action {
	if c.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.itemTimeout)
		defer cancel()
	}
	return c.svc.HandleStoredObject(ctx, ref)
}
