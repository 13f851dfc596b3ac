// Package goble binds the peripheral's device model to the go-ble GATT
// stack: it builds the service table, adapts stack callbacks onto the model,
// and runs advertising.
package goble

import (
	"context"
	"errors"
	"fmt"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/sirupsen/logrus"

	"github.com/srg/blip/peripheral"
)

// DeviceFactory creates ble.Device instances (can be overridden in tests).
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func(name string) (ble.Device, error) {
	return linux.NewDeviceWithName(name)
}

// Server exposes a peripheral.Peripheral over a single GATT service.
type Server struct {
	p      *peripheral.Peripheral
	logger *logrus.Logger

	serviceUUID ble.UUID

	// conns tracks live centrals by remote address so connect/disconnect
	// events are surfaced exactly once per session.
	conns *hashmap.Map[string, ble.Conn]

	// linkEncrypted decides whether a connection satisfies the encrypted
	// characteristic's access policy. Overridable in tests.
	linkEncrypted func(ble.Conn) bool
}

// NewServer creates a GATT server for the peripheral.
func NewServer(p *peripheral.Peripheral, serviceUUID string, logger *logrus.Logger) (*Server, error) {
	if logger == nil {
		logger = logrus.New()
	}
	uuid, err := ble.Parse(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", serviceUUID, err)
	}
	return &Server{
		p:             p,
		logger:        logger,
		serviceUUID:   uuid,
		conns:         hashmap.New[string, ble.Conn](),
		linkEncrypted: defaultLinkEncrypted,
	}, nil
}

// BuildService assembles the GATT service: both characteristics in
// declaration order, read/write/notify handlers bound, and encrypted
// permissions marked on the encrypted characteristic so the ATT layer
// demands link encryption before forwarding requests.
func (s *Server) BuildService() (*ble.Service, error) {
	svc := ble.NewService(s.serviceUUID)

	for _, c := range s.p.Characteristics() {
		uuid, err := ble.Parse(c.UUID())
		if err != nil {
			return nil, fmt.Errorf("characteristic %s: invalid UUID %q: %w", c.Name(), c.UUID(), err)
		}

		char := ble.NewCharacteristic(uuid)
		char.HandleRead(ble.ReadHandlerFunc(s.readHandler(c)))
		char.HandleWrite(ble.WriteHandlerFunc(s.writeHandler(c)))
		char.HandleNotify(ble.NotifyHandlerFunc(s.notifyHandler(c)))
		if c.Encrypted() {
			char.Secure = ble.CharRead | ble.CharWrite
		}
		svc.AddCharacteristic(char)
	}

	return svc, nil
}

// Serve attaches the HCI device, registers the service, and advertises until
// ctx is cancelled. Cancellation is a normal shutdown, not an error.
func (s *Server) Serve(ctx context.Context) error {
	dev, err := DeviceFactory(s.p.Name())
	if err != nil {
		return fmt.Errorf("failed to attach HCI device: %w", err)
	}
	ble.SetDefaultDevice(dev)
	defer func() {
		if err := dev.Stop(); err != nil {
			s.logger.WithError(err).Warn("Failed to stop HCI device")
		}
	}()

	svc, err := s.BuildService()
	if err != nil {
		return err
	}
	if err := ble.AddService(svc); err != nil {
		return fmt.Errorf("failed to register GATT service: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"name":    s.p.Name(),
		"service": s.serviceUUID.String(),
	}).Info("BLE advertising started")

	err = ble.AdvertiseNameAndServices(ctx, s.p.Name(), svc.UUID)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// observeConn surfaces a connection the first time it is seen and watches for
// its teardown. The stack offers no direct connect callback in the peripheral
// role, so sessions are discovered from the first attribute request.
func (s *Server) observeConn(conn ble.Conn) {
	if conn == nil {
		return
	}
	addr := conn.RemoteAddr().String()
	if _, loaded := s.conns.GetOrInsert(addr, conn); loaded {
		return
	}
	s.p.Connected(addr)

	watch, ok := conn.(interface{ Disconnected() <-chan struct{} })
	if !ok {
		// No teardown signal from this stack; the session entry just
		// stays until process exit.
		return
	}
	go func() {
		<-watch.Disconnected()
		s.conns.Del(addr)
		s.p.Disconnected(addr)
	}()
}

// defaultLinkEncrypted trusts the ATT layer's own permission check unless the
// connection can report its encryption state directly.
func defaultLinkEncrypted(conn ble.Conn) bool {
	if sec, ok := conn.(interface{ Encrypted() bool }); ok {
		return sec.Encrypted()
	}
	return true
}
