// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

type mockSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func notifyConfig(sesEnabled, snsEnabled bool) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.AWS.Region = "eu-central-1"
	cfg.AWS.SES.Enabled = sesEnabled
	cfg.AWS.SES.FromEmail = "pipeline@example.com"
	cfg.AWS.SES.ToEmail = "me@example.com"
	cfg.AWS.SNS.Enabled = snsEnabled
	cfg.AWS.SNS.TopicARN = "arn:aws:sns:eu-central-1:123456789012:saturnus"
	return cfg
}

func urgentEmail() (*models.Email, models.Classification) {
	return &models.Email{
			Subject:     "Interview invitation",
			SenderEmail: "hr@techcorp.com",
		}, models.Classification{
			Category:  models.CategoryInterviewInvite,
			Sentiment: models.SentimentPositive,
			Reasoning: "explicit invite",
		}
}

func TestNotifyUrgent(t *testing.T) {
	t.Run("sends on both channels", func(t *testing.T) {
		sesMock := &mockSES{}
		snsMock := &mockSNS{}
		n := NewWithClients(notifyConfig(true, true), sesMock, snsMock, logger.NewTestLogger(t))

		email, classification := urgentEmail()
		require.NoError(t, n.NotifyUrgent(context.Background(), email, classification, "TechCorp"))

		require.Len(t, sesMock.inputs, 1)
		assert.Equal(t, "[Saturnus] Interview invite from TechCorp", *sesMock.inputs[0].Message.Subject.Data)
		assert.Equal(t, []string{"me@example.com"}, sesMock.inputs[0].Destination.ToAddresses)
		require.Len(t, snsMock.inputs, 1)
		assert.Contains(t, *snsMock.inputs[0].Message, "hr@techcorp.com")
	})

	t.Run("disabled channels stay silent", func(t *testing.T) {
		sesMock := &mockSES{}
		snsMock := &mockSNS{}
		n := NewWithClients(notifyConfig(false, false), sesMock, snsMock, logger.NewTestLogger(t))

		email, classification := urgentEmail()
		require.NoError(t, n.NotifyUrgent(context.Background(), email, classification, "TechCorp"))
		assert.Empty(t, sesMock.inputs)
		assert.Empty(t, snsMock.inputs)
	})

	t.Run("SES failure still publishes to SNS", func(t *testing.T) {
		sesMock := &mockSES{err: errors.New("throttled")}
		snsMock := &mockSNS{}
		n := NewWithClients(notifyConfig(true, true), sesMock, snsMock, logger.NewTestLogger(t))

		email, classification := urgentEmail()
		err := n.NotifyUrgent(context.Background(), email, classification, "TechCorp")
		assert.Error(t, err)
		assert.Len(t, snsMock.inputs, 1)
	})
}

func TestNotifyRejectionStreak(t *testing.T) {
	snsMock := &mockSNS{}
	n := NewWithClients(notifyConfig(false, true), &mockSES{}, snsMock, logger.NewTestLogger(t))

	require.NoError(t, n.NotifyRejectionStreak(context.Background(), "TechCorp", 3))
	require.Len(t, snsMock.inputs, 1)
	assert.Equal(t, "[Saturnus] 3 rejections from TechCorp", *snsMock.inputs[0].Subject)
	assert.Contains(t, *snsMock.inputs[0].Message, "blocklist")
}
