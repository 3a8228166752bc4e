package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

const (
	colorGreen  = 0x2ECC71 // price dropped
	colorBlue   = 0x3498DB // tracking started
	colorYellow = 0xF1C40F // tracking expired
	colorOrange = 0xE67E22 // tracking stopped
)

// DiscordTransport implements Transport via Discord webhook.
type DiscordTransport struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordTransport creates a new DiscordTransport.
func NewDiscordTransport(webhookURL string, opts ...HTTPOption) *DiscordTransport {
	d := &DiscordTransport{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&d.client)
	}
	return d
}

// HTTPOption configures an HTTP-based transport.
type HTTPOption func(**http.Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(dst **http.Client) {
		*dst = c
	}
}

// Name returns the transport name.
func (*DiscordTransport) Name() string { return "discord" }

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Thumbnail   *discordThumbnail   `json:"thumbnail,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordThumbnail struct {
	URL string `json:"url"`
}

// Send posts the notification as a single embed.
func (d *DiscordTransport) Send(ctx context.Context, n *Notification) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(n)},
	}
	return d.post(ctx, payload)
}

func buildEmbed(n *Notification) discordEmbed {
	embed := discordEmbed{
		Title:       n.Title,
		URL:         n.ProductURL,
		Color:       kindColor(n.Kind),
		Description: n.Body,
		Fields: []discordEmbedField{
			{Name: "Store", Value: n.Store, Inline: true},
		},
	}
	if n.Price != "" {
		embed.Fields = append(embed.Fields,
			discordEmbedField{Name: "Price", Value: n.Price + " " + n.Currency, Inline: true})
	}
	if n.Threshold != "" {
		embed.Fields = append(embed.Fields,
			discordEmbedField{Name: "Target", Value: n.Threshold + " " + n.Currency, Inline: true})
	}
	if n.UserRef != "" {
		embed.Fields = append(embed.Fields,
			discordEmbedField{Name: "User", Value: n.UserRef, Inline: true})
	}

	if n.ImageURL != "" {
		embed.Thumbnail = &discordThumbnail{URL: n.ImageURL}
	}

	return embed
}

func kindColor(kind domain.IntentKind) int {
	switch kind {
	case domain.IntentPriceDropped:
		return colorGreen
	case domain.IntentTrackingStarted:
		return colorBlue
	case domain.IntentTrackingExpired:
		return colorYellow
	default:
		return colorOrange
	}
}

func (d *DiscordTransport) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshaling discord payload: %w", err))
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating discord request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	metrics.NotificationDuration.WithLabelValues("discord").Observe(time.Since(start).Seconds())
	if err != nil {
		return transportError("discord", "sending webhook: %v", err)
	}
	defer resp.Body.Close()

	return checkResponse("discord", resp)
}

// checkResponse maps a webhook response onto an error. Client errors other
// than 429 are permanent and stop retries.
func checkResponse(name string, resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return transportError(name, "rate limited (429)")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
	var err error
	if readErr != nil {
		err = transportError(name, "returned %d (body unreadable)", resp.StatusCode)
	} else {
		err = transportError(name, "returned %d: %s", resp.StatusCode, respBody)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}
