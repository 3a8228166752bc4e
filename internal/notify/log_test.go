package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

func TestLogTransport_Send(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogTransport(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, l.Send(context.Background(), testNotification(domain.IntentPriceDropped)))
	assert.Equal(t, "log", l.Name())
	assert.Contains(t, buf.String(), "kind=price_dropped")
	assert.Contains(t, buf.String(), "user=user-1")
}
