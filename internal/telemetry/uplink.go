package telemetry

import (
	"encoding/json"
	"io"
	"sync/atomic"

	"go.bug.st/serial"

	"codeberg.org/mkern/printmond/internal/errors"
	"codeberg.org/mkern/printmond/internal/logger"
)

const uplinkQueueDepth = 16

// Uplink is the best-effort serial link to the gateway. There is no
// backpressure protocol: a record that cannot be queued immediately is
// dropped and counted, never allowed to stall the control loop.
type Uplink struct {
	port    io.WriteCloser
	queue   chan []byte
	done    chan struct{}
	dropped atomic.Uint64
}

// OpenUplink opens the serial port and starts the writer.
func OpenUplink(portName string, baud int) (*Uplink, error) {
	errFactory := errors.New()

	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, errFactory.Wrap(ErrUplinkOpen, err)
	}

	return NewUplink(port), nil
}

// NewUplink wraps an already-open link. Split out for tests.
func NewUplink(port io.WriteCloser) *Uplink {
	u := &Uplink{
		port:  port,
		queue: make(chan []byte, uplinkQueueDepth),
		done:  make(chan struct{}),
	}
	go u.writer()
	return u
}

func (u *Uplink) writer() {
	defer close(u.done)

	for buf := range u.queue {
		if _, err := u.port.Write(buf); err != nil {
			// Link errors are absorbed; the gateway side resyncs on
			// newline-delimited records.
			logger.Debug().Err(err).Msg("uplink write failed")
		}
	}
}

// Send serializes and queues a record. Non-blocking: returns false when
// the record was dropped.
func (u *Uplink) Send(record any) bool {
	buf, err := json.Marshal(record)
	if err != nil {
		logger.Debug().Err(err).Msg("uplink marshal failed")
		u.dropped.Add(1)
		return false
	}
	buf = append(buf, '\n')

	select {
	case u.queue <- buf:
		return true
	default:
		u.dropped.Add(1)
		return false
	}
}

// Dropped returns the number of records dropped since start.
func (u *Uplink) Dropped() uint64 {
	return u.dropped.Load()
}

// Close drains the queue and closes the port.
func (u *Uplink) Close() error {
	close(u.queue)
	<-u.done
	return u.port.Close()
}
