package dashboard

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"time"

	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/sensor"
	"github.com/sirupsen/logrus"
)

const (
	responseHead = "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"Connection: close\r\n" +
		"\r\n"
	maxRequestBytes = 4 << 10
	writeTimeout    = 10 * time.Second
)

var terminator = []byte("\r\n\r\n")

// ForecastSource is the read side of the prediction state.
type ForecastSource interface {
	Snapshot() (prediction.Forecast, bool)
}

type Opts struct {
	ReadTimeout        time.Duration
	RefreshSeconds     int
	PredictionInterval time.Duration
}

// Server renders the dashboard to one connection at a time. The request is
// only read far enough to find its end; every connection gets the same page.
type Server struct {
	reader sensor.SampleReader
	state  ForecastSource
	opts   Opts
	logger *logrus.Logger
}

func NewServer(reader sensor.SampleReader, state ForecastSource, opts Opts, logger *logrus.Logger) *Server {
	return &Server{
		reader: reader,
		state:  state,
		opts:   opts,
		logger: logger,
	}
}

// ServeConn answers conn with the dashboard and closes it.
func (s *Server) ServeConn(conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debugf("closing client: %s", err.Error())
		}
		s.logger.Debug("Client disconnected")
	}()
	s.logger.Debugf("New client connected: %s", conn.RemoteAddr())

	if n, complete := s.readRequest(conn); !complete {
		s.logger.Debugf("request incomplete after %s (%d bytes), serving anyway", s.opts.ReadTimeout, n)
	}

	sample := s.reader.Read()
	forecast, available := s.state.Snapshot()

	var body bytes.Buffer
	data := newPageData(sample, forecast, available, s.opts.RefreshSeconds, s.opts.PredictionInterval)
	if err := renderPage(&body, data); err != nil {
		s.logger.Errorf("cannot render dashboard: %s", err.Error())
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	w := bufio.NewWriter(conn)
	_, _ = io.WriteString(w, responseHead)
	_, _ = w.Write(body.Bytes())
	if err := w.Flush(); err != nil {
		s.logger.Warnf("cannot write dashboard: %s", err.Error())
	}
}

// readRequest accumulates bytes until the header terminator or the read
// timeout. It reports how many bytes were seen and whether the end was found.
func (s *Server) readRequest(conn net.Conn) (int, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))

	var (
		buf   []byte
		total int
		chunk = make([]byte, 512)
	)
	for {
		n, err := conn.Read(chunk)
		total += n
		buf = append(buf, chunk[:n]...)
		if bytes.Contains(buf, terminator) {
			return total, true
		}
		if len(buf) > maxRequestBytes {
			// keep enough tail to spot a terminator split across reads
			buf = append(buf[:0], buf[len(buf)-len(terminator)+1:]...)
		}
		if err != nil {
			return total, false
		}
	}
}
