package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// parseFromFile reads a config file into a partial Config.
// returns nil (not error) if the file doesn't exist or holds only comments,
// so callers fall back to embedded defaults.
func parseFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.TrimSpace(stripComments(string(data))) == "" {
		return nil, nil
	}
	return parseFromBytes(data)
}

// parseFromEmbedded parses the embedded defaults/config file.
func parseFromEmbedded() (*Config, error) {
	data, err := defaultsFS.ReadFile("defaults/config")
	if err != nil {
		return nil, fmt.Errorf("read embedded defaults: %w", err)
	}
	return parseFromBytes(data)
}

// parseFromBytes parses INI data into a Config.
func parseFromBytes(data []byte) (*Config, error) {
	// ignoreInlineComment: true prevents # from being treated as inline comment marker
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{}
	section := f.Section("") // default section (no section header)

	strKeys := []struct {
		key   string
		field *string
	}{
		{"base_url", &cfg.BaseURL},
		{"script_file", &cfg.ScriptFile},
		{"sample_file", &cfg.SampleFile},
		{"run_command", &cfg.RunCommand},
		{"color_setup", &cfg.Colors.Setup},
		{"color_generate", &cfg.Colors.Generate},
		{"color_run", &cfg.Colors.Run},
		{"color_warn", &cfg.Colors.Warn},
		{"color_error", &cfg.Colors.Error},
		{"color_info", &cfg.Colors.Info},
		{"color_timestamp", &cfg.Colors.Timestamp},
		{"notify_telegram_token", &cfg.Notify.TelegramToken},
		{"notify_telegram_chat", &cfg.Notify.TelegramChat},
		{"notify_slack_token", &cfg.Notify.SlackToken},
		{"notify_slack_channel", &cfg.Notify.SlackChannel},
		{"notify_smtp_host", &cfg.Notify.SMTPHost},
		{"notify_smtp_username", &cfg.Notify.SMTPUsername},
		{"notify_smtp_password", &cfg.Notify.SMTPPassword},
		{"notify_email_from", &cfg.Notify.EmailFrom},
		{"notify_custom_script", &cfg.Notify.CustomScript},
	}
	for _, k := range strKeys {
		if key, keyErr := section.GetKey(k.key); keyErr == nil {
			*k.field = key.String()
		}
	}

	boolKeys := []struct {
		key   string
		field *bool
		set   *bool
	}{
		{"enable_run", &cfg.Capabilities.Run, &cfg.Capabilities.RunSet},
		{"enable_sample", &cfg.Capabilities.Sample, &cfg.Capabilities.SampleSet},
		{"enable_watch", &cfg.Capabilities.Watch, &cfg.Capabilities.WatchSet},
		{"notify_on_error", &cfg.Notify.OnError, &cfg.Notify.OnErrorSet},
		{"notify_on_complete", &cfg.Notify.OnComplete, &cfg.Notify.OnCompleteSet},
		{"notify_smtp_starttls", &cfg.Notify.SMTPStartTLS, nil},
	}
	for _, k := range boolKeys {
		if key, keyErr := section.GetKey(k.key); keyErr == nil {
			val, boolErr := key.Bool()
			if boolErr != nil {
				return nil, fmt.Errorf("invalid %s: %w", k.key, boolErr)
			}
			*k.field = val
			if k.set != nil {
				*k.set = true
			}
		}
	}

	intKeys := []struct {
		key   string
		field *int
	}{
		{"notify_timeout_ms", &cfg.Notify.TimeoutMs},
		{"notify_smtp_port", &cfg.Notify.SMTPPort},
	}
	for _, k := range intKeys {
		if key, keyErr := section.GetKey(k.key); keyErr == nil {
			val, intErr := key.Int()
			if intErr != nil {
				return nil, fmt.Errorf("invalid %s: %w", k.key, intErr)
			}
			*k.field = val
		}
	}

	listKeys := []struct {
		key   string
		field *[]string
	}{
		{"notify_channels", &cfg.Notify.Channels},
		{"notify_email_to", &cfg.Notify.EmailTo},
		{"notify_webhook_urls", &cfg.Notify.WebhookURLs},
	}
	for _, k := range listKeys {
		if key, keyErr := section.GetKey(k.key); keyErr == nil {
			*k.field = splitList(key.String())
		}
	}

	return cfg, nil
}

// mergeFrom overlays values from other onto c. strings merge when non-empty;
// tracked booleans merge when explicitly set, so a local config can disable
// what the defaults enable.
func (c *Config) mergeFrom(other *Config) {
	if other == nil {
		return
	}

	strFields := []struct{ dst, src *string }{
		{&c.BaseURL, &other.BaseURL},
		{&c.ScriptFile, &other.ScriptFile},
		{&c.SampleFile, &other.SampleFile},
		{&c.RunCommand, &other.RunCommand},
		{&c.Colors.Setup, &other.Colors.Setup},
		{&c.Colors.Generate, &other.Colors.Generate},
		{&c.Colors.Run, &other.Colors.Run},
		{&c.Colors.Warn, &other.Colors.Warn},
		{&c.Colors.Error, &other.Colors.Error},
		{&c.Colors.Info, &other.Colors.Info},
		{&c.Colors.Timestamp, &other.Colors.Timestamp},
		{&c.Notify.TelegramToken, &other.Notify.TelegramToken},
		{&c.Notify.TelegramChat, &other.Notify.TelegramChat},
		{&c.Notify.SlackToken, &other.Notify.SlackToken},
		{&c.Notify.SlackChannel, &other.Notify.SlackChannel},
		{&c.Notify.SMTPHost, &other.Notify.SMTPHost},
		{&c.Notify.SMTPUsername, &other.Notify.SMTPUsername},
		{&c.Notify.SMTPPassword, &other.Notify.SMTPPassword},
		{&c.Notify.EmailFrom, &other.Notify.EmailFrom},
		{&c.Notify.CustomScript, &other.Notify.CustomScript},
	}
	for _, f := range strFields {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}

	if other.Capabilities.RunSet {
		c.Capabilities.Run = other.Capabilities.Run
		c.Capabilities.RunSet = true
	}
	if other.Capabilities.SampleSet {
		c.Capabilities.Sample = other.Capabilities.Sample
		c.Capabilities.SampleSet = true
	}
	if other.Capabilities.WatchSet {
		c.Capabilities.Watch = other.Capabilities.Watch
		c.Capabilities.WatchSet = true
	}
	if other.Notify.OnErrorSet {
		c.Notify.OnError = other.Notify.OnError
		c.Notify.OnErrorSet = true
	}
	if other.Notify.OnCompleteSet {
		c.Notify.OnComplete = other.Notify.OnComplete
		c.Notify.OnCompleteSet = true
	}
	if other.Notify.SMTPStartTLS {
		c.Notify.SMTPStartTLS = true
	}

	if other.Notify.TimeoutMs > 0 {
		c.Notify.TimeoutMs = other.Notify.TimeoutMs
	}
	if other.Notify.SMTPPort > 0 {
		c.Notify.SMTPPort = other.Notify.SMTPPort
	}

	if len(other.Notify.Channels) > 0 {
		c.Notify.Channels = other.Notify.Channels
	}
	if len(other.Notify.EmailTo) > 0 {
		c.Notify.EmailTo = other.Notify.EmailTo
	}
	if len(other.Notify.WebhookURLs) > 0 {
		c.Notify.WebhookURLs = other.Notify.WebhookURLs
	}
}

// splitList parses a comma-separated list, trimming whitespace and dropping empties.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// stripComments removes comment lines so commented-out templates fall back
// to embedded defaults instead of overriding them with zero values.
func stripComments(s string) string {
	var b strings.Builder
	for line := range strings.SplitSeq(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
