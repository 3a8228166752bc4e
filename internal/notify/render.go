package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// Render loads the alert, product and observation behind an intent and
// builds its Notification.
func Render(ctx context.Context, s store.Store, in *domain.NotificationIntent) (*Notification, error) {
	a, err := s.GetAlert(ctx, in.AlertID)
	if err != nil {
		return nil, fmt.Errorf("loading alert %s: %w", in.AlertID, err)
	}
	p, err := s.GetProduct(ctx, a.ProductID)
	if err != nil {
		return nil, fmt.Errorf("loading product %s: %w", a.ProductID, err)
	}

	n := &Notification{
		IntentID:    in.ID,
		Kind:        in.Kind,
		AlertID:     a.ID,
		UserRef:     a.UserRef,
		Email:       a.Settings.Email,
		Phone:       a.Settings.Phone,
		ProductName: p.CanonicalName,
		Store:       p.Store,
		ProductURL:  p.URL,
		ImageURL:    p.ImageURL,
		Currency:    p.Currency,
		ExpiresAt:   a.ExpiresAt,
		OccurredAt:  in.CreatedAt,
	}
	if a.Settings.Threshold != nil {
		n.Threshold = a.Settings.Threshold.StringFixed(2)
	}
	if p.LastKnownPrice != nil {
		n.Price = p.LastKnownPrice.StringFixed(2)
	}

	if in.ObservationID != "" {
		obs, err := s.GetObservation(ctx, in.ObservationID)
		switch {
		case err == nil:
			n.Price = obs.Price.StringFixed(2)
			n.Currency = obs.Currency
			if obs.SourceURL != "" {
				n.ProductURL = obs.SourceURL
			}
		case errors.Is(err, store.ErrNotFound):
			// Fall back to the product's last known price.
		default:
			return nil, fmt.Errorf("loading observation %s: %w", in.ObservationID, err)
		}
	}

	n.Title, n.Body = message(n)
	return n, nil
}

func message(n *Notification) (title, body string) {
	switch n.Kind {
	case domain.IntentPriceDropped:
		title = "Price drop: " + n.ProductName
		body = fmt.Sprintf("%s at %s is now %s %s", n.ProductName, n.Store, n.Price, n.Currency)
		if n.Threshold != "" {
			body += fmt.Sprintf(" (your target: %s %s)", n.Threshold, n.Currency)
		}
	case domain.IntentTrackingStarted:
		title = "Tracking started: " + n.ProductName
		body = fmt.Sprintf("We are watching %s at %s until %s.",
			n.ProductName, n.Store, n.ExpiresAt.Format("2006-01-02"))
	case domain.IntentTrackingStopped:
		title = "Tracking stopped: " + n.ProductName
		body = fmt.Sprintf("You will no longer receive updates for %s at %s.", n.ProductName, n.Store)
	case domain.IntentTrackingExpired:
		title = "Tracking ended: " + n.ProductName
		body = fmt.Sprintf("Tracking for %s at %s expired on %s.",
			n.ProductName, n.Store, n.ExpiresAt.Format("2006-01-02"))
	default:
		title = string(n.Kind) + ": " + n.ProductName
	}
	return title, body
}
