package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"telegram-sms-bridge/internal/config"
	"telegram-sms-bridge/internal/domain"
	"telegram-sms-bridge/internal/domain/ports/adapter"
	"telegram-sms-bridge/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Ensure interface compliance
var _ adapter.SMSProvider = (*Provider)(nil)

// Provider talks to the Twilio Messages REST API. One Send call maps to one
// POST against /2010-04-01/Accounts/{sid}/Messages.json with basic auth.
type Provider struct {
	log        *zerolog.Logger
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

func NewProvider(logger *zerolog.Logger, cfg *config.TwilioConfig, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.SendTimeout}
	}
	l := logger.With().Str("provider", "twilio").Logger()
	return &Provider{
		log:        &l,
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.APIURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.SourceNumber,
	}
}

// errorResponse is Twilio's rejection payload.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// messageResponse is the subset of a created-message payload we care about.
type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func (p *Provider) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, p.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", p.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.IncOutboundSMS("failed")
		return fmt.Errorf("twilio request: %w: %w", domain.ErrSendFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncOutboundSMS("failed")
		return fmt.Errorf("read twilio response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.IncOutboundSMS("sent")
		var msg messageResponse
		if err := json.Unmarshal(raw, &msg); err != nil {
			// Accepted by Twilio either way; the SID is only for logging.
			p.log.Warn().Int("status_code", resp.StatusCode).Msg("sent SMS but could not parse response")
			return nil
		}
		p.log.Debug().Str("sid", msg.SID).Str("sms_status", msg.Status).Msg("sent SMS")
		return nil
	}

	metrics.IncOutboundSMS("failed")
	var rej errorResponse
	if err := json.Unmarshal(raw, &rej); err == nil && rej.Message != "" {
		return fmt.Errorf("twilio rejected send (code %d): %s: %w", rej.Code, rej.Message, domain.ErrSendFailed)
	}
	return fmt.Errorf("twilio rejected send (status %d): %w", resp.StatusCode, domain.ErrSendFailed)
}
