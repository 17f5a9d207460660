package notify

import (
	"fmt"
	"log"

	"github.com/dialsched/internal/models"
	"github.com/slack-go/slack"
	"gopkg.in/gomail.v2"
)

type Config struct {
	SlackToken     string
	SlackChannel   string
	SMTPHost       string
	SMTPPort       int
	EmailFrom      string
	EmailPassword  string
	EmailReceivers []string
}

// Notifier tells operators about occurrences that exhausted their retries.
// A failed occurrence must be visible, never silently equivalent to success;
// a failure to notify, on the other hand, is only logged.
type Notifier struct {
	slackClient *slack.Client
	emailDialer *gomail.Dialer
	config      *Config
}

func NewNotifier(config *Config) *Notifier {
	n := &Notifier{config: config}
	if config.SlackToken != "" {
		n.slackClient = slack.New(config.SlackToken)
	}
	if config.SMTPHost != "" {
		n.emailDialer = gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.EmailFrom, config.EmailPassword)
	}
	return n
}

// ExecutionFailed notifies all configured channels about a FAILED execution.
func (n *Notifier) ExecutionFailed(schedule *models.Schedule, exec *models.Execution) {
	subject := fmt.Sprintf("Scheduled %s of %s %q failed",
		schedule.Action, schedule.ScheduleType, schedule.TargetName)
	body := fmt.Sprintf("Schedule %d: %s %s %s (target %s), occurrence %s failed after %d attempts: %s",
		schedule.ID, schedule.Action, schedule.ScheduleType, schedule.TargetName,
		schedule.TargetID, exec.OccurrenceDate.Format("2006-01-02"), exec.Attempts, exec.Error)

	if n.slackClient != nil {
		if err := n.sendSlack(subject, body); err != nil {
			log.Printf("Warning: Failed to send slack notification: %v", err)
		}
	}
	if n.emailDialer != nil {
		if err := n.sendEmail(subject, body); err != nil {
			log.Printf("Warning: Failed to send email notification: %v", err)
		}
	}
}

func (n *Notifier) sendSlack(subject, body string) error {
	attachment := slack.Attachment{
		Color: "#ff0000",
		Title: subject,
		Text:  body,
	}
	_, _, err := n.slackClient.PostMessage(
		n.config.SlackChannel,
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %v", err)
	}
	return nil
}

func (n *Notifier) sendEmail(subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.config.EmailFrom)
	m.SetHeader("To", n.config.EmailReceivers...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.emailDialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}
