package goble

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blip/peripheral"
	"github.com/srg/blip/pkg/config"
)

func newTestServer(t *testing.T) (*Server, *peripheral.Peripheral, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	p := peripheral.New(cfg, nil, nil)
	srv, err := NewServer(p, cfg.ServiceUUID, nil)
	require.NoError(t, err)
	return srv, p, cfg
}

// captureSink records notification payloads pushed by the notify pump.
type captureSink struct {
	mu     sync.Mutex
	values []string
}

func (c *captureSink) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, string(data))
	return len(data), nil
}

func (c *captureSink) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.values...)
}

func TestNewServer_InvalidServiceUUID(t *testing.T) {
	cfg := config.DefaultConfig()
	p := peripheral.New(cfg, nil, nil)

	_, err := NewServer(p, "not-a-uuid", nil)
	assert.Error(t, err)
}

func TestBuildService(t *testing.T) {
	srv, _, cfg := newTestServer(t)

	svc, err := srv.BuildService()
	require.NoError(t, err)

	require.Len(t, svc.Characteristics, 2)

	open := svc.Characteristics[0]
	encrypted := svc.Characteristics[1]

	assert.True(t, ble.MustParse(cfg.OpenCharUUID).Equal(open.UUID))
	assert.True(t, ble.MustParse(cfg.EncryptedCharUUID).Equal(encrypted.UUID))

	for _, char := range svc.Characteristics {
		assert.NotZero(t, char.Property&ble.CharRead)
		assert.NotZero(t, char.Property&ble.CharWrite)
		assert.NotZero(t, char.Property&ble.CharNotify)
	}

	// Only the encrypted characteristic demands an encrypted link.
	assert.Zero(t, open.Secure)
	assert.NotZero(t, encrypted.Secure&ble.CharRead)
	assert.NotZero(t, encrypted.Secure&ble.CharWrite)
}

func TestServeWrite_OpenCharacteristic(t *testing.T) {
	srv, p, cfg := newTestServer(t)
	open, ok := p.Lookup(cfg.OpenCharUUID)
	require.True(t, ok)

	status := srv.serveWrite(open, []byte("ON"), "aa:bb:cc:dd:ee:ff", false)
	assert.Equal(t, ble.ErrSuccess, status)

	value, err := p.Read(cfg.OpenCharUUID)
	require.NoError(t, err)
	assert.Equal(t, "Green LED on", value)
}

func TestServeWrite_EncryptedRequiresSecureLink(t *testing.T) {
	srv, p, cfg := newTestServer(t)
	enc, ok := p.Lookup(cfg.EncryptedCharUUID)
	require.True(t, ok)

	status := srv.serveWrite(enc, []byte("ON"), "aa:bb:cc:dd:ee:ff", false)
	assert.Equal(t, ble.ErrAuthentication, status)

	// The rejected write never reached the dispatcher.
	value, err := p.Read(cfg.EncryptedCharUUID)
	require.NoError(t, err)
	assert.Equal(t, "LED off", value)

	status = srv.serveWrite(enc, []byte("ON"), "aa:bb:cc:dd:ee:ff", true)
	assert.Equal(t, ble.ErrSuccess, status)

	value, err = p.Read(cfg.EncryptedCharUUID)
	require.NoError(t, err)
	assert.Equal(t, "Red LED on", value)
}

func TestServeRead(t *testing.T) {
	srv, _, cfg := newTestServer(t)

	tests := []struct {
		name          string
		uuid          string
		linkEncrypted bool
		wantValue     string
		wantStatus    ble.ATTError
	}{
		{
			name:          "open over plain link",
			uuid:          cfg.OpenCharUUID,
			linkEncrypted: false,
			wantValue:     "LED off",
			wantStatus:    ble.ErrSuccess,
		},
		{
			name:          "encrypted over plain link",
			uuid:          cfg.EncryptedCharUUID,
			linkEncrypted: false,
			wantStatus:    ble.ErrAuthentication,
		},
		{
			name:          "encrypted over secure link",
			uuid:          cfg.EncryptedCharUUID,
			linkEncrypted: true,
			wantValue:     "LED off",
			wantStatus:    ble.ErrSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := srv.p.Lookup(tt.uuid)
			require.True(t, ok)

			value, status := srv.serveRead(c, tt.linkEncrypted)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestRunNotify_PumpsValuesUntilCancelled(t *testing.T) {
	srv, p, cfg := newTestServer(t)
	open, ok := p.Lookup(cfg.OpenCharUUID)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &captureSink{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.runNotify(ctx, open, sink)
	}()

	// The pump enables the subscription before draining values.
	require.Eventually(t, func() bool {
		return p.NotifyEnabled(cfg.OpenCharUUID)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Write(cfg.OpenCharUUID, []byte("ON"), ""))

	require.Eventually(t, func() bool {
		vals := sink.snapshot()
		return len(vals) == 1 && vals[0] == "Green LED on"
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify pump did not stop on context cancel")
	}

	// Session teardown clears the subscription flag.
	assert.False(t, p.NotifyEnabled(cfg.OpenCharUUID))
}
