// Package notify sends container-run outcome notifications through
// configured channels (telegram, slack, email, webhook, custom script).
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"

	"e2ectl/pkg/config"
)

// Service orchestrates sending notifications through configured channels.
type Service struct {
	channels   []channel      // paired notifier + destination
	custom     *customChannel // optional custom script channel
	onError    bool
	onComplete bool
	timeoutMs  int
	hostname   string // resolved once at creation via os.Hostname()
	log        logger
}

// channel pairs a notifier with its destination URI.
type channel struct {
	notifier   ntfy.Notifier
	dest       string
	htmlEscape bool // true for channels that use HTML parse mode (e.g., telegram)
}

// logger interface for dependency injection.
type logger interface {
	Print(format string, args ...any)
}

// Result holds container-run completion data for notifications.
type Result struct {
	Status     string `json:"status"` // "success" or "failure"
	ProjectURL string `json:"project_url"`
	ScriptFile string `json:"script_file"`
	Duration   string `json:"duration"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Total      int    `json:"total"`
	ReportURL  string `json:"report_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

// errChannelUnavailable marks channels whose construction needs a live
// backend call (telegram verifies the bot token against the API). these are
// skipped with a warning instead of failing startup, notifications are
// best-effort.
var errChannelUnavailable = errors.New("unavailable")

// channelBuilders maps channel names to constructors. each builder validates
// its own config section; webhook yields one channel per configured URL.
var channelBuilders = map[string]func(config.NotifyConfig) ([]channel, error){
	"telegram": makeTelegramChannels,
	"email":    makeEmailChannels,
	"slack":    makeSlackChannels,
	"webhook":  makeWebhookChannels,
}

// New creates a notification Service from the notify configuration.
// returns nil, nil if no channels are configured, enabling callers to skip nil checks via nil-safe Send.
// validates required fields per channel and returns an error for misconfigured channels.
func New(p config.NotifyConfig, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // nil,nil signals "no channels configured" — callers use nil-safe Send
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	svc := &Service{
		onError:    p.OnError,
		onComplete: p.OnComplete,
		timeoutMs:  p.TimeoutMs,
		hostname:   hostname,
		log:        log,
	}
	if svc.timeoutMs <= 0 {
		svc.timeoutMs = 10000
	}

	for _, name := range p.Channels {
		name = strings.TrimSpace(strings.ToLower(name))

		// custom is a script pipe, not a go-pkgz/notify channel
		if name == "custom" {
			if p.CustomScript == "" {
				return nil, errors.New("custom channel: notify_custom_script is required")
			}
			svc.custom = newCustomChannel(p.CustomScript)
			continue
		}

		build, ok := channelBuilders[name]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel: %q", name)
		}
		chs, cErr := build(p)
		if cErr != nil {
			if errors.Is(cErr, errChannelUnavailable) {
				log.Print("[WARN] %s channel disabled: %s", name, cErr)
				continue
			}
			return nil, fmt.Errorf("%s channel: %w", name, cErr)
		}
		svc.channels = append(svc.channels, chs...)
	}

	if len(svc.channels) == 0 && svc.custom == nil {
		log.Print("[WARN] all notification channels were disabled due to initialization errors")
	}

	return svc, nil
}

// Send sends a notification for the given result. nil-safe on receiver — callers don't need nil checks.
// checks onError/onComplete flags and sends to all configured channels.
// errors are logged but never returned (best-effort).
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil {
		return
	}

	// filter based on result status
	if r.Status == "success" && !s.onComplete {
		return
	}
	if r.Status == "failure" && !s.onError {
		return
	}

	msg := s.formatMessage(r)

	timeout := time.Duration(s.timeoutMs) * time.Millisecond
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// send to go-pkgz/notify channels
	for _, ch := range s.channels {
		text := msg
		if ch.htmlEscape {
			text = html.EscapeString(msg)
		}
		if err := ch.notifier.Send(sendCtx, ch.dest, text); err != nil {
			s.log.Print("[WARN] notification failed for %s: %v", ch.notifier, err)
		}
	}

	// send to custom script channel
	if s.custom != nil {
		if err := s.custom.send(sendCtx, r); err != nil {
			s.log.Print("[WARN] custom notification failed: %v", err)
		}
	}
}

// formatMessage creates a plain text notification message from the result.
func (s *Service) formatMessage(r Result) string {
	var b strings.Builder

	if r.Status == "success" {
		fmt.Fprintf(&b, "e2ectl run completed on %s\n", s.hostname)
	} else {
		fmt.Fprintf(&b, "e2ectl run failed on %s\n", s.hostname)
	}

	b.WriteString("\n")

	if r.ProjectURL != "" {
		fmt.Fprintf(&b, "project:  %s\n", r.ProjectURL)
	}
	if r.ScriptFile != "" {
		fmt.Fprintf(&b, "script:   %s\n", r.ScriptFile)
	}
	if r.Duration != "" {
		fmt.Fprintf(&b, "duration: %s\n", r.Duration)
	}

	if r.Status == "success" {
		fmt.Fprintf(&b, "tests:    %d passed, %d failed of %d\n", r.Passed, r.Failed, r.Total)
	}
	if r.ReportURL != "" {
		fmt.Fprintf(&b, "report:   %s\n", r.ReportURL)
	}

	if r.Error != "" {
		fmt.Fprintf(&b, "error:    %s\n", r.Error)
	}

	return b.String()
}

// telegramNotifierMaker constructs the telegram notifier.
// overridden in tests to avoid live API calls.
var telegramNotifierMaker = func(token string) (ntfy.Notifier, error) {
	return ntfy.NewTelegram(ntfy.TelegramParams{Token: token})
}

// makeTelegramChannels creates the telegram channel, sending to
// telegram:<chat>?parseMode=HTML. constructing the notifier makes a live
// getMe call to verify the bot token, so failures come back as unavailable
// rather than fatal, with the token redacted from the error text.
func makeTelegramChannels(p config.NotifyConfig) ([]channel, error) {
	if p.TelegramToken == "" {
		return nil, errors.New("notify_telegram_token is required")
	}
	if p.TelegramChat == "" {
		return nil, errors.New("notify_telegram_chat is required")
	}

	tg, err := telegramNotifierMaker(p.TelegramToken)
	if err != nil {
		msg := strings.ReplaceAll(err.Error(), p.TelegramToken, "[REDACTED]")
		return nil, fmt.Errorf("%w: %s", errChannelUnavailable, msg)
	}

	dest := fmt.Sprintf("telegram:%s?parseMode=HTML", p.TelegramChat)
	return []channel{{notifier: tg, dest: dest, htmlEscape: true}}, nil
}

// makeEmailChannels creates the email channel with a mailto: destination
// carrying all recipients, sender and subject.
func makeEmailChannels(p config.NotifyConfig) ([]channel, error) {
	if p.SMTPHost == "" {
		return nil, errors.New("notify_smtp_host is required")
	}
	if p.EmailFrom == "" {
		return nil, errors.New("notify_email_from is required")
	}
	if len(p.EmailTo) == 0 {
		return nil, errors.New("notify_email_to is required")
	}

	em := ntfy.NewEmail(ntfy.SMTPParams{
		Host:     p.SMTPHost,
		Port:     p.SMTPPort,
		Username: p.SMTPUsername,
		Password: p.SMTPPassword,
		StartTLS: p.SMTPStartTLS,
	})

	dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s",
		strings.Join(p.EmailTo, ","),
		url.QueryEscape(p.EmailFrom),
		url.QueryEscape("e2ectl notification"),
	)

	return []channel{{notifier: em, dest: dest}}, nil
}

// makeSlackChannels creates the slack channel.
func makeSlackChannels(p config.NotifyConfig) ([]channel, error) {
	if p.SlackToken == "" {
		return nil, errors.New("notify_slack_token is required")
	}
	if p.SlackChannel == "" {
		return nil, errors.New("notify_slack_channel is required")
	}

	sl := ntfy.NewSlack(p.SlackToken)
	return []channel{{notifier: sl, dest: "slack:" + p.SlackChannel}}, nil
}

// makeWebhookChannels creates one webhook channel per configured URL, all
// sharing a single notifier.
func makeWebhookChannels(p config.NotifyConfig) ([]channel, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}

	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	channels := make([]channel, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		channels = append(channels, channel{notifier: wh, dest: u})
	}
	return channels, nil
}
