package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESNotifier sends operator alerts by email through Amazon SES.
type SESNotifier struct {
	client    *sesv2.Client
	sender    string
	recipient string
}

func NewSESNotifier(ctx context.Context, region, sender, recipient string) (*SESNotifier, error) {
	if sender == "" || recipient == "" {
		return nil, fmt.Errorf("SES notifier requires sender and recipient addresses")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESNotifier{
		client:    sesv2.NewFromConfig(awsCfg),
		sender:    sender,
		recipient: recipient,
	}, nil
}

func (n *SESNotifier) Notify(ctx context.Context, subject, body string) error {
	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.sender),
		Destination: &types.Destination{
			ToAddresses: []string{n.recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}
