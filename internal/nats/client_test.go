package nats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-ai/flight-concierge/pkg/logger"
)

func TestConnectUnreachableServer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	client, err := Connect(ctx, Config{URL: "nats://127.0.0.1:1"}, logger.NewNop())
	require.Error(t, err)
	assert.Nil(t, client)
}

func TestConnectBadTLSConfig(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), Config{
		URL:      "nats://127.0.0.1:1",
		CAFile:   "testdata/missing-ca.pem",
		CertFile: "testdata/missing-cert.pem",
		KeyFile:  "testdata/missing-key.pem",
	}, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS config")
}

func TestNilClientNotConnected(t *testing.T) {
	t.Parallel()

	c := &Client{}
	assert.False(t, c.IsConnected())
	c.Close()
}
