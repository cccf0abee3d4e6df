// Package slack is the Slack transport: the Events API webhook, its request
// verification and redelivery gate, and a Web API client for the bot.
package slack

import (
	"net/http"

	slackapi "github.com/slack-go/slack"

	"github.com/hpungsan/mimic/internal/errors"
)

// Request signing headers.
const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
)

// Verify checks the v0 request signature in h against body. slack-go
// rejects timestamps more than five minutes from the local clock.
func Verify(secret string, h http.Header, body []byte) error {
	sv, err := slackapi.NewSecretsVerifier(h, secret)
	if err != nil {
		return errors.NewUnauthorized(err.Error())
	}
	if _, err := sv.Write(body); err != nil {
		return errors.NewUnauthorized(err.Error())
	}
	if err := sv.Ensure(); err != nil {
		return errors.NewUnauthorized("signature mismatch")
	}
	return nil
}
