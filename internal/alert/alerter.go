package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/metrics"
)

// Severity grades an alert. ALERT asks for operator action.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityAlert Severity = "ALERT"
)

// Alert represents a single alert event.
type Alert struct {
	Severity  Severity
	Chain     model.Chain
	ChainType model.ChainType
	Wallet    string
	Title     string
	Message   string
	Fields    map[string]string
	// DedupKey enables cooldown suppression for repeated alerts. Alerts
	// without one are always delivered.
	DedupKey string
}

// Alerter is the interface for sending alerts.
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

func sortedFieldKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MultiAlerter fans out alerts to multiple channels.
type MultiAlerter struct {
	alerters []Alerter
	cooldown time.Duration
	store    CooldownStore
	logger   *slog.Logger
}

// NewMultiAlerter creates a multi-channel alerter. A nil store keeps
// cooldown state in process memory.
func NewMultiAlerter(cooldown time.Duration, store CooldownStore, logger *slog.Logger, alerters ...Alerter) *MultiAlerter {
	if store == nil {
		store = NewMemoryCooldown()
	}
	return &MultiAlerter{
		alerters: alerters,
		cooldown: cooldown,
		store:    store,
		logger:   logger.With("component", "alerter"),
	}
}

// Send dispatches alert to all channels, respecting cooldown for alerts
// that carry a dedup key.
func (m *MultiAlerter) Send(ctx context.Context, alert Alert) error {
	if alert.DedupKey != "" && m.cooldown > 0 {
		acquired, err := m.store.Acquire(ctx, alert.DedupKey, m.cooldown)
		if err != nil {
			m.logger.Warn("alert cooldown check failed", "key", alert.DedupKey, "error", err)
		} else if !acquired {
			m.logger.Debug("alert suppressed by cooldown", "key", alert.DedupKey)
			metrics.AlertsCooldownSkipped.WithLabelValues(string(alert.Severity)).Inc()
			return nil
		}
	}

	var firstErr error
	for _, a := range m.alerters {
		if err := a.Send(ctx, alert); err != nil {
			m.logger.Warn("alert send failed",
				"channel", alerterName(a),
				"severity", alert.Severity,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			metrics.AlertsSentTotal.WithLabelValues(alerterName(a), string(alert.Severity)).Inc()
		}
	}
	return firstErr
}

func alerterName(a Alerter) string {
	switch a.(type) {
	case *LogAlerter:
		return "log"
	case *SlackAlerter:
		return "slack"
	case *WebhookAlerter:
		return "webhook"
	default:
		return "unknown"
	}
}

// LogAlerter writes alerts to the structured log.
type LogAlerter struct {
	logger *slog.Logger
}

func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	return &LogAlerter{logger: logger.With("component", "alert_log")}
}

func (l *LogAlerter) Send(ctx context.Context, alert Alert) error {
	level := slog.LevelInfo
	switch alert.Severity {
	case SeverityWarn:
		level = slog.LevelWarn
	case SeverityAlert:
		level = slog.LevelError
	}

	attrs := []any{
		"severity", alert.Severity,
		"chain", alert.Chain,
		"chain_type", alert.ChainType,
		"wallet", alert.Wallet,
		"message", alert.Message,
	}
	for _, k := range sortedFieldKeys(alert.Fields) {
		attrs = append(attrs, k, alert.Fields[k])
	}
	l.logger.Log(ctx, level, alert.Title, attrs...)
	return nil
}

// SlackAlerter sends alerts to a Slack webhook.
type SlackAlerter struct {
	webhookURL string
	client     *http.Client
}

// NewSlackAlerter creates a Slack alerter with the given webhook URL.
func NewSlackAlerter(webhookURL string) *SlackAlerter {
	return &SlackAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sends an alert to Slack.
func (s *SlackAlerter) Send(ctx context.Context, alert Alert) error {
	emoji := ":information_source:"
	switch alert.Severity {
	case SeverityWarn:
		emoji = ":warning:"
	case SeverityAlert:
		emoji = ":rotating_light:"
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s *[%s]* %s:%s: %s\n%s",
		emoji, alert.Severity, alert.ChainType, alert.Chain, alert.Title, alert.Message)
	if alert.Wallet != "" {
		fmt.Fprintf(&text, "\n- *wallet*: %s", alert.Wallet)
	}
	for _, k := range sortedFieldKeys(alert.Fields) {
		fmt.Fprintf(&text, "\n- *%s*: %s", k, alert.Fields[k])
	}

	return postJSON(ctx, s.client, s.webhookURL, "slack", map[string]string{"text": text.String()})
}

// WebhookAlerter sends alerts to a generic HTTP webhook.
type WebhookAlerter struct {
	url    string
	client *http.Client
}

// NewWebhookAlerter creates a generic webhook alerter.
func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sends an alert to the webhook endpoint.
func (w *WebhookAlerter) Send(ctx context.Context, alert Alert) error {
	payload := map[string]any{
		"severity":   string(alert.Severity),
		"chain":      string(alert.Chain),
		"chain_type": string(alert.ChainType),
		"wallet":     alert.Wallet,
		"title":      alert.Title,
		"message":    alert.Message,
		"fields":     alert.Fields,
		"dedup_key":  alert.DedupKey,
		"time":       time.Now().UTC().Format(time.RFC3339),
	}
	return postJSON(ctx, w.client, w.url, "webhook", payload)
}

func postJSON(ctx context.Context, client *http.Client, url, channel string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", channel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", channel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s alert: %w", channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", channel, resp.StatusCode)
	}
	return nil
}

// NoopAlerter does nothing. Used when no alert channels are configured.
type NoopAlerter struct{}

func (n *NoopAlerter) Send(_ context.Context, _ Alert) error { return nil }
