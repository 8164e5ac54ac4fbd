// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	apperrors "github.com/JanKonradK/Saturnus-Magister/internal/common/errors"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

// Interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier sends out-of-band alerts for events that should not wait for the
// next inbox check: interview invites, offers, and rejection streaks.
type Notifier struct {
	config    config.NotificationConfig
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func New(cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	n := &Notifier{
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}

	if cfg.AWS.SES.Enabled || cfg.AWS.SNS.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		n.sesClient = ses.NewFromConfig(awsCfg)
		n.snsClient = sns.NewFromConfig(awsCfg)
	}

	return n, nil
}

// NewWithClients wires explicit clients, used by tests.
func NewWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log,
	}
}

// NotifyUrgent announces an interview invite or offer on every enabled
// channel. Failures log and report but never block the pipeline.
func (n *Notifier) NotifyUrgent(ctx context.Context, email *models.Email, classification models.Classification, company string) error {
	subject := fmt.Sprintf("[Saturnus] %s from %s", headline(classification.Category), company)
	body := fmt.Sprintf("Email: %s\nFrom: %s\nCategory: %s\n\n%s",
		email.Subject, email.SenderEmail, classification.Category, classification.Reasoning)

	return n.send(ctx, subject, body)
}

// NotifyRejectionStreak flags a company that keeps rejecting, so applying
// there again is a conscious decision.
func (n *Notifier) NotifyRejectionStreak(ctx context.Context, company string, count int) error {
	subject := fmt.Sprintf("[Saturnus] %d rejections from %s", count, company)
	body := fmt.Sprintf("%s has rejected %d applications in the trailing year. The company was added to the blocklist.",
		company, count)

	return n.send(ctx, subject, body)
}

func (n *Notifier) send(ctx context.Context, subject, body string) error {
	var firstErr error

	if n.config.AWS.SES.Enabled && n.sesClient != nil {
		_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
			Destination: &types.Destination{
				ToAddresses: []string{n.config.AWS.SES.ToEmail},
			},
			Message: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
			Source: aws.String(n.config.AWS.SES.FromEmail),
		})
		if err != nil {
			n.logger.Error("SES send failed", map[string]interface{}{"error": err.Error()})
			firstErr = apperrors.NewNotificationSendFailedError("ses", err)
		}
	}

	if n.config.AWS.SNS.Enabled && n.snsClient != nil {
		_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(n.config.AWS.SNS.TopicARN),
			Subject:  aws.String(subject),
			Message:  aws.String(body),
		})
		if err != nil {
			n.logger.Error("SNS publish failed", map[string]interface{}{"error": err.Error()})
			if firstErr == nil {
				firstErr = apperrors.NewNotificationSendFailedError("sns", err)
			}
		}
	}

	return firstErr
}

func headline(category models.EmailCategory) string {
	switch category {
	case models.CategoryInterviewInvite:
		return "Interview invite"
	case models.CategoryOffer:
		return "Offer"
	default:
		return "Update"
	}
}
