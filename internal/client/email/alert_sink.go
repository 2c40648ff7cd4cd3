package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Sender is the part of the resend emails service used here.
type Sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

var failureTemplate = template.Must(template.New("failure").Parse(`<p>A delegated redemption failed.</p>
<ul>
<li>Grant: {{.GrantID}}</li>
<li>Execution: {{.ExecutionID}}</li>
<li>Amount in: {{.AmountIn}}</li>
<li>Source: {{.SourceUsed}}</li>
<li>Reason: {{.FailureReason}}</li>
<li>Reference: {{.ExternalReference}}</li>
</ul>`))

// FailureAlertSink emails operators when a redemption fails. Successful outcomes are ignored.
type FailureAlertSink struct {
	sender Sender
	from   string
	to     []string
	logger *zap.Logger
}

// NewFailureAlertSink creates a sink sending through resend with apiKey.
func NewFailureAlertSink(apiKey, from string, to []string) *FailureAlertSink {
	return NewFailureAlertSinkWithSender(resend.NewClient(apiKey).Emails, from, to)
}

// NewFailureAlertSinkWithSender wraps an existing sender.
func NewFailureAlertSinkWithSender(sender Sender, from string, to []string) *FailureAlertSink {
	return &FailureAlertSink{
		sender: sender,
		from:   from,
		to:     to,
		logger: logger.ForComponent(logger.ComponentActivity),
	}
}

func (s *FailureAlertSink) Name() string { return "email" }

func (s *FailureAlertSink) Emit(ctx context.Context, record business.ActivityRecord) error {
	if record.Status != business.ExecutionStatusFailed {
		return nil
	}

	var html bytes.Buffer
	if err := failureTemplate.Execute(&html, record); err != nil {
		return fmt.Errorf("failed to render alert: %w", err)
	}

	sent, err := s.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      s.to,
		Subject: fmt.Sprintf("Redemption failed for grant %s", record.GrantID),
		Html:    html.String(),
		Headers: map[string]string{
			"X-Entity-Ref-ID": record.ExecutionID.String(),
		},
		Tags: []resend.Tag{
			{Name: "category", Value: "redemption_failure"},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	s.logger.Info("Failure alert sent",
		zap.String("email_id", sent.Id),
		zap.String("execution_id", record.ExecutionID.String()))
	return nil
}
