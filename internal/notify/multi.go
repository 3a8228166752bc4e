package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// MultiTransport fans a notification out to several transports. Send fails
// if any transport fails, so retries may re-send to transports that already
// succeeded; receivers dedup on the intent id.
type MultiTransport struct {
	transports []Transport
}

// NewMultiTransport combines transports.
func NewMultiTransport(transports ...Transport) *MultiTransport {
	return &MultiTransport{transports: transports}
}

// Name joins the names of the wrapped transports.
func (m *MultiTransport) Name() string {
	names := make([]string, 0, len(m.transports))
	for _, t := range m.transports {
		names = append(names, t.Name())
	}
	return strings.Join(names, "+")
}

// Send delivers n to every transport and joins their errors. The result is
// permanent only when every failure was permanent.
func (m *MultiTransport) Send(ctx context.Context, n *Notification) error {
	var (
		errs      []error
		permanent = true
	)
	for _, t := range m.transports {
		err := t.Send(ctx, n)
		if err == nil {
			continue
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		} else {
			permanent = false
		}
		errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
	}

	if len(errs) == 0 {
		return nil
	}
	joined := errors.Join(errs...)
	if permanent {
		return backoff.Permanent(joined)
	}
	return joined
}
