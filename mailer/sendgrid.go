package mailer

import (
	"context"
	"fmt"

	"expense-tracker/api/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const resetSubject = "Expense Tracker Reset Password"

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid delivers password reset links through the SendGrid v3 API.
type SendGrid struct {
	client sender
	from   *mail.Email
}

func NewSendGrid(apiKey, fromEmail, fromName string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGrid) SendResetLink(ctx context.Context, to, link string) error {
	message := mail.NewSingleEmail(
		s.from,
		resetSubject,
		mail.NewEmail("", to),
		"Reset your password using this link: "+link,
		ResetHTML(link),
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending reset mail: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code sending reset mail: %d", resp.StatusCode)
	}

	logger.Get().Info("reset mail sent", zap.String("to", to), zap.Int("status", resp.StatusCode))
	return nil
}

// ResetHTML renders the body of the reset mail.
func ResetHTML(link string) string {
	return fmt.Sprintf(`<h3>Hi! We got the request from you for reset the password. Here is the link below >>></h3>
<a href="%s"> Click Here</a>`, link)
}
