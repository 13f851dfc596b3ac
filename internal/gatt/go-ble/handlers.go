package goble

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/blip/peripheral"
)

// notifySink is the slice of ble.Notifier the notify pump needs. Narrowed so
// tests can drive the pump without a live stack.
type notifySink interface {
	Write(data []byte) (int, error)
}

// serveRead resolves one read request. Split from the ble.ReadHandler wrapper
// so it can be exercised directly.
func (s *Server) serveRead(c *peripheral.Characteristic, linkEncrypted bool) (string, ble.ATTError) {
	if c.Encrypted() && !linkEncrypted {
		return "", ble.ErrAuthentication
	}
	value, err := s.p.Read(c.UUID())
	if err != nil {
		return "", ble.ErrUnlikely
	}
	return value, ble.ErrSuccess
}

// serveWrite applies one inbound write. Unrecognized payloads are ignored by
// the dispatcher but still acknowledged at the transport level.
func (s *Server) serveWrite(c *peripheral.Characteristic, data []byte, peer string, linkEncrypted bool) ble.ATTError {
	if c.Encrypted() && !linkEncrypted {
		return ble.ErrAuthentication
	}
	if err := s.p.Write(c.UUID(), data, peer); err != nil {
		return ble.ErrUnlikely
	}
	return ble.ErrSuccess
}

// runNotify marks the subscription enabled and pushes queued values to the
// client until ctx ends. The tracker flag is cleared on the way out, whether
// the client unsubscribed or the link dropped.
func (s *Server) runNotify(ctx context.Context, c *peripheral.Characteristic, sink notifySink) {
	if err := s.p.SetNotify(c.UUID(), true); err != nil {
		return
	}
	defer func() {
		_ = s.p.SetNotify(c.UUID(), false)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case value, ok := <-c.Notifications():
			if !ok {
				return
			}
			if _, err := sink.Write([]byte(value)); err != nil {
				s.logger.WithError(err).WithField("char", c.Name()).Warn("Notification write failed")
				return
			}
			s.logger.WithFields(logrus.Fields{"char": c.Name(), "value": value}).Debug("Notification sent")
		}
	}
}

func (s *Server) readHandler(c *peripheral.Characteristic) func(ble.Request, ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		s.observeConn(req.Conn())

		value, status := s.serveRead(c, s.linkEncrypted(req.Conn()))
		if status != ble.ErrSuccess {
			rsp.SetStatus(status)
			return
		}
		if _, err := rsp.Write([]byte(value)); err != nil {
			s.logger.WithError(err).WithField("char", c.Name()).Warn("Read response failed")
		}
	}
}

func (s *Server) writeHandler(c *peripheral.Characteristic) func(ble.Request, ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		s.observeConn(req.Conn())

		peer := req.Conn().RemoteAddr().String()
		if status := s.serveWrite(c, req.Data(), peer, s.linkEncrypted(req.Conn())); status != ble.ErrSuccess {
			rsp.SetStatus(status)
		}
	}
}

func (s *Server) notifyHandler(c *peripheral.Characteristic) func(ble.Request, ble.Notifier) {
	return func(req ble.Request, n ble.Notifier) {
		s.observeConn(req.Conn())

		// A CCCD write on the encrypted characteristic is gated the same
		// way as its value operations.
		if c.Encrypted() && !s.linkEncrypted(req.Conn()) {
			_ = n.Close()
			return
		}

		s.runNotify(n.Context(), c, n)
	}
}
