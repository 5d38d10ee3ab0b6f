package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"expense-tracker/api/models"
)

// HandleJob sends a reset mail that was queued through Kafka. It is the
// worker pool's JobFunc.
func (s *SendGrid) HandleJob(ctx context.Context, job []byte) error {
	var mj models.MailJob
	if err := json.Unmarshal(job, &mj); err != nil {
		return fmt.Errorf("failed to unmarshal mail job: %w", err)
	}
	if mj.Email == "" || mj.Link == "" {
		return fmt.Errorf("incomplete mail job")
	}
	return s.SendResetLink(ctx, mj.Email, mj.Link)
}
