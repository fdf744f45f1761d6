// Package uartio opens a real serial port and feeds its byte stream to a
// framer.Session. Grounded on gnssgo's src/stream.go OpenSerial, which
// opens github.com/tarm/goserial the same way (a *serial.Config built from
// a port name and baud rate, then serial.OpenPort); this package narrows
// that down to the one thing the framer needs, a plain io.Reader loop, and
// drops the TCP-relay and multi-device bookkeeping OpenSerial also does.
package uartio

import (
	"bufio"
	"context"
	"fmt"
	"io"

	serial "github.com/tarm/goserial"

	"github.com/fxbgnss/semprelay/framer"
)

// Config names the serial port and baud rate to open, mirroring the
// (Name, Baud) pair gnssgo's serial.Config carries.
type Config struct {
	Port string
	Baud int
}

// Reader streams bytes from an open serial port into a framer.Session.
type Reader struct {
	port io.ReadCloser
	buf  *bufio.Reader
}

// Open opens the named serial port at the given baud rate.
func Open(cfg Config) (*Reader, error) {
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Port, Baud: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("uartio: open %s: %w", cfg.Port, err)
	}
	return &Reader{port: port, buf: bufio.NewReader(port)}, nil
}

// Close releases the underlying serial port.
func (r *Reader) Close() error {
	return r.port.Close()
}

// Run reads from the port until ctx is canceled or the port returns an
// error, feeding every byte read to sess via FeedBuffer. It never retains
// a read buffer across calls longer than one chunk, matching the framer's
// no-allocation-on-the-hot-path discipline as closely as a Read loop can.
func (r *Reader) Run(ctx context.Context, sess *framer.Session) error {
	chunk := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := r.buf.Read(chunk)
		if n > 0 {
			sess.FeedBuffer(chunk[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("uartio: read: %w", err)
		}
	}
}
