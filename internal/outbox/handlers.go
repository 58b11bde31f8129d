package outbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/config"
	"github.com/cleanco/platform/internal/metrics"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/storage"
)

// EmailPayload is the JSON shape enqueued for KindEmail.
type EmailPayload struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// EmailHandler delivers KindEmail events over SMTP via gomail. Dialing per
// send rather than holding a long-lived connection keeps the handler safe
// to call from many drain workers at once.
func EmailHandler(cfg *config.EmailConfig) Handler {
	return func(_ context.Context, _ *gorm.DB, event *models.OutboxEvent) error {
		if cfg.Backend == "noop" {
			return nil
		}
		var payload EmailPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		if payload.To == "" {
			return fmt.Errorf("email payload missing recipient")
		}

		m := gomail.NewMessage()
		m.SetHeader("From", m.FormatAddress(cfg.SenderEmail, "CleanCo"))
		m.SetHeader("To", payload.To)
		m.SetHeader("Subject", payload.Subject)
		m.SetBody("text/html", payload.HTMLBody)

		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
		if err := d.DialAndSend(m); err != nil {
			metrics.EmailOutcomesTotal.WithLabelValues(payload.Subject, "failed").Inc()
			return err
		}
		metrics.EmailOutcomesTotal.WithLabelValues(payload.Subject, "sent").Inc()
		return nil
	}
}

// ExportWebhookPayload is the JSON shape enqueued for KindExportWebhook.
type ExportWebhookPayload struct {
	URL  string          `json:"url"`
	Body json.RawMessage `json:"body"`
}

// ExportWebhookHandler posts export events to a customer-configured URL.
// Every call revalidates the destination against the configured allowlist
// and resolves the hostname itself so a DNS change between enqueue and
// delivery can't redirect the request at a private address.
func ExportWebhookHandler(cfg *config.ExportConfig) Handler {
	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return fmt.Errorf("export webhook: redirects are not followed")
		},
	}

	return func(ctx context.Context, _ *gorm.DB, event *models.OutboxEvent) error {
		if cfg.Mode != "webhook" {
			return fmt.Errorf("export webhook delivery disabled")
		}
		var payload ExportWebhookPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode export webhook payload: %w", err)
		}
		if err := validateWebhookDestination(cfg, payload.URL); err != nil {
			return Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.URL, bytes.NewReader(payload.Body))
		if err != nil {
			return Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Outbox-Event-Id", event.ID)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return Permanent(fmt.Errorf("export webhook: destination returned status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("export webhook: destination returned status %d", resp.StatusCode)
		}
		return nil
	}
}

func validateWebhookDestination(cfg *config.ExportConfig, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("export webhook: invalid url: %w", err)
	}
	if cfg.HTTPSOnly && u.Scheme != "https" {
		return fmt.Errorf("export webhook: scheme %q is not allowed", u.Scheme)
	}
	if len(cfg.AllowedHosts) > 0 && !hostAllowed(u.Hostname(), cfg.AllowedHosts) {
		return fmt.Errorf("export webhook: host %q is not in the allowlist", u.Hostname())
	}
	if cfg.BlockPrivateIPs {
		ips, err := net.LookupIP(u.Hostname())
		if err != nil {
			return fmt.Errorf("export webhook: could not resolve host: %w", err)
		}
		for _, ip := range ips {
			if isPrivateOrLinkLocal(ip) {
				return fmt.Errorf("export webhook: destination resolves to a private address")
			}
		}
	}
	return nil
}

func hostAllowed(host string, allowlist []string) bool {
	host = strings.ToLower(host)
	for _, allowed := range allowlist {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}

func isPrivateOrLinkLocal(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// IntegrationEventPayload is the JSON shape enqueued for KindIntegrationEvent.
type IntegrationEventPayload struct {
	URL    string            `json:"url"`
	Secret string            `json:"secret"`
	Body   json.RawMessage   `json:"body"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// IntegrationEventHandler delivers to a fixed, operator-configured
// integration endpoint (not a customer URL), so it skips the allowlist
// check. It uses its own client: 10s timeout, TLS 1.2 minimum, and
// redirects followed.
func IntegrationEventHandler() Handler {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
	return func(ctx context.Context, _ *gorm.DB, event *models.OutboxEvent) error {
		var payload IntegrationEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode integration event payload: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.URL, bytes.NewReader(payload.Body))
		if err != nil {
			return Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if payload.Secret != "" {
			req.Header.Set("X-Integration-Secret", payload.Secret)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return Permanent(fmt.Errorf("integration event: endpoint returned status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("integration event: endpoint returned status %d", resp.StatusCode)
		}
		return nil
	}
}

// StorageDeletePayload is the JSON shape enqueued for KindStorageDelete.
// PhotoID is carried only for observability; the owning row is already
// gone by the time this is enqueued, so nothing dereferences it by ID.
type StorageDeletePayload struct {
	Key     string `json:"key"`
	PhotoID string `json:"photo_id,omitempty"`
}

// StorageDeleteHandler retries object deletion against the storage gateway
// after the owning DB row has already been removed, so a failed delivery
// just leaves an orphaned object behind rather than a dangling reference.
func StorageDeleteHandler(gateway storage.Gateway) Handler {
	return func(ctx context.Context, _ *gorm.DB, event *models.OutboxEvent) error {
		var payload StorageDeletePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode storage delete payload: %w", err)
		}
		return gateway.Delete(ctx, payload.Key)
	}
}
