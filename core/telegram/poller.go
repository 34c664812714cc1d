package telegram

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/intakebot/core/config"

	tele "gopkg.in/telebot.v4"
)

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
	Secret string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a Telebot poller based on provided options.
func BuildPoller(opts PollerOptions) tele.Poller {
	runMode := strings.ToLower(strings.TrimSpace(opts.RunMode))
	if runMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:      fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			SecretToken: opts.Webhook.Secret,
			Endpoint:    &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	}

	return &tele.LongPoller{
		Timeout:        PollTimeout(opts.LongPollTimeoutSeconds),
		AllowedUpdates: []string{"message", "callback_query"},
	}
}

// PollTimeout resolves the long poll timeout, defaulting to 10s.
func PollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = 10
	}
	return time.Duration(seconds) * time.Second
}
