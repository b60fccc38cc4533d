package tools

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/plan"
)

// EmailTool answers "email" steps. Without SMTP settings it degrades to
// writing the outgoing message into the step logs, which keeps demo runs
// side-effect free.
type EmailTool struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailTool builds an email sender from SMTP settings.
func NewEmailTool(cfg config.SMTPConfig) *EmailTool {
	return &EmailTool{cfg: cfg, send: smtp.SendMail}
}

// Run implements Tool.
func (t *EmailTool) Run(_ context.Context, args map[string]interface{}, state plan.State) ([]string, map[string]interface{}, error) {
	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	if subject == "" {
		subject = "Agent result"
	}
	body, _ := args["body"].(string)
	if body == "" {
		body = bodyFromState(state)
	}
	if body == "" {
		body = "(no content available)"
	}

	if !t.cfg.Configured() {
		logs := []string{
			fmt.Sprintf("SMTP not configured - would send email to %s with subject '%s'", to, subject),
			fmt.Sprintf("Email body:\n%s", body),
		}
		return logs, map[string]interface{}{"email_sent": false, "to": to, "subject": subject}, nil
	}

	from := t.cfg.From
	if from == "" {
		from = t.cfg.User
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s", from, to, subject, body)
	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)

	if err := t.send(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		logs := []string{fmt.Sprintf("Failed to send email: %v", err)}
		return logs, map[string]interface{}{"email_sent": false, "error": err.Error()}, nil
	}
	return []string{fmt.Sprintf("Email sent to %s", to)}, map[string]interface{}{"email_sent": true, "to": to, "subject": subject}, nil
}

// bodyFromState assembles an email body from earlier step outputs: a
// summary if one exists, otherwise search results, otherwise scraped pages.
func bodyFromState(state plan.State) string {
	if output, ok := plan.FirstMatch(state, "summary"); ok {
		if summary, _ := output["summary"].(string); summary != "" {
			return summary
		}
	}

	var parts []string
	for _, v := range state.Values() {
		output, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if results := anySlice(output["results"]); len(results) > 0 {
			parts = append(parts, "Search Results:\n"+strings.Repeat("=", 50))
			for i, r := range results {
				if i >= 10 {
					break
				}
				m, ok := r.(map[string]interface{})
				if !ok {
					continue
				}
				title, _ := m["title"].(string)
				snippet, _ := m["snippet"].(string)
				link, _ := m["url"].(string)
				parts = append(parts, fmt.Sprintf("\n%d. %s", i+1, title))
				parts = append(parts, fmt.Sprintf("   %s", snippet))
				if link != "" {
					parts = append(parts, fmt.Sprintf("   %s\n", link))
				}
			}
			continue
		}
		if pages := anySlice(output["pages"]); len(pages) > 0 {
			parts = append(parts, "Scraped Content:\n"+strings.Repeat("=", 50))
			for i, p := range pages {
				if i >= 3 {
					break
				}
				m, ok := p.(map[string]interface{})
				if !ok {
					continue
				}
				url, _ := m["url"].(string)
				text, _ := m["text"].(string)
				if len(text) > 500 {
					text = text[:500]
				}
				parts = append(parts, fmt.Sprintf("\n%s\n%s...\n", url, text))
			}
		}
	}
	return strings.Join(parts, "\n")
}
