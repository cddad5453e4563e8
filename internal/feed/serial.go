package feed

import (
	"bufio"
	"context"
	"io"

	"go.bug.st/serial"
)

// SerialSource reads telemetry lines from a serial bridge (RailDriver-style
// interface boxes relay the same key:value stream over a COM port).
type SerialSource struct {
	*fanout
	port io.ReadCloser
}

// NewSerialSource opens the named serial port at the bridge's fixed rate.
func NewSerialSource(portName string) (*SerialSource, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	return &SerialSource{fanout: newFanout(), port: port}, nil
}

// newSerialSourceFrom wraps an already-open reader; used by tests.
func newSerialSourceFrom(rc io.ReadCloser) *SerialSource {
	return &SerialSource{fanout: newFanout(), port: rc}
}

// Monitor scans lines off the port until the context is cancelled or the
// port errors out.
func (s *SerialSource) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop
	// stays free to observe context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErrChan:
			return err
		case line, ok := <-lineChan:
			if !ok {
				return nil
			}
			if line != "" {
				s.publish(line)
			}
		}
	}
}

// Close closes all subscribers and the underlying port.
func (s *SerialSource) Close() error {
	s.closeAll()
	return s.port.Close()
}
