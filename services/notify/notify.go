// Package notify dispatches notification facts to learners and to an
// optional external webhook collaborator.
package notify

import (
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"lms/models"
	"lms/services/cascade"
	"lms/utils"
)

// Service sends an email to the learner for known events and forwards the
// raw fact to a configured webhook. Either channel may be absent.
type Service struct {
	client     *resty.Client
	webhookURL string
}

func NewService(webhookURL string) *Service {
	client := resty.New().SetTimeout(10 * time.Second)
	return &Service{client: client, webhookURL: webhookURL}
}

// Notify delivers one notification fact. The email leg is fire-and-forget
// (the mail utility already sends on a goroutine); the webhook leg reports
// its error so the cascade can log it.
func (s *Service) Notify(user *models.User, orgID uint, event string, payload map[string]interface{}) error {
	if event == cascade.EventCourseCompleted {
		title, _ := payload["course_title"].(string)
		utils.SendCourseCompletedEmail(user.Email, user.Name, title)
	}

	if s.webhookURL == "" {
		return nil
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"event":           event,
			"user_id":         user.ID,
			"organization_id": orgID,
			"payload":         payload,
			"sent_at":         time.Now(),
		}).
		Post(s.webhookURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode())
	}
	log.Printf("[NOTIFY] Delivered %s for user %d", event, user.ID)
	return nil
}
