// Package notify delivers notification intents to users through pluggable
// transports.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// ErrTransport wraps failures reported by a transport.
var ErrTransport = errors.New("notification transport failed")

// Notification is the rendered, transport-neutral form of an intent.
type Notification struct {
	IntentID string
	Kind     domain.IntentKind
	AlertID  string

	UserRef string
	Email   string
	Phone   string

	ProductName string
	Store       string
	ProductURL  string
	ImageURL    string

	Price     string
	Currency  string
	Threshold string

	Title      string
	Body       string
	ExpiresAt  time.Time
	OccurredAt time.Time
}

// Transport sends a Notification to one backend.
type Transport interface {
	Send(ctx context.Context, n *Notification) error
	Name() string
}

// transportError builds an ErrTransport-wrapped error for backend name.
func transportError(name string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrTransport, name, fmt.Sprintf(format, args...))
}
