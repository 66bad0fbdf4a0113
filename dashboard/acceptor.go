package dashboard

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

const acceptRetryDelay = 50 * time.Millisecond

// Acceptor hands inbound connections to the runtime loop one at a time. The
// next connection is not accepted until Served is called for the previous one.
type Acceptor struct {
	ln     net.Listener
	conns  chan net.Conn
	served chan struct{}
	logger *logrus.Logger
}

func NewAcceptor(ln net.Listener, logger *logrus.Logger) *Acceptor {
	return &Acceptor{
		ln:     ln,
		conns:  make(chan net.Conn),
		served: make(chan struct{}, 1),
		logger: logger,
	}
}

// Conns delivers accepted connections.
func (a *Acceptor) Conns() <-chan net.Conn {
	return a.conns
}

// Served releases the acceptor to take the next connection.
func (a *Acceptor) Served() {
	select {
	case a.served <- struct{}{}:
	default:
	}
}

// Run accepts until ctx is done or the listener is closed.
func (a *Acceptor) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = a.ln.Close()
	}()
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			a.logger.Warnf("accept failed: %s", err.Error())
			time.Sleep(acceptRetryDelay)
			continue
		}
		select {
		case a.conns <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
		select {
		case <-a.served:
		case <-ctx.Done():
			return
		}
	}
}
