package link

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProber struct {
	upAfter int32
	calls   int32
}

func (p *countingProber) Up() bool {
	n := atomic.AddInt32(&p.calls, 1)
	return p.upAfter >= 0 && n > p.upAfter
}

type recordingAssociator struct {
	ssid, credential string
}

func (r *recordingAssociator) Associate(ssid, credential string) error {
	r.ssid, r.credential = ssid, credential
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

func TestConnectSucceedsAndListens(t *testing.T) {
	assoc := &recordingAssociator{}
	prober := &countingProber{upAfter: 2}
	m := NewManager(assoc, prober, Opts{Attempts: 20, PollInterval: time.Millisecond, ListenAddr: "127.0.0.1:0"}, quietLogger())
	defer m.Close()

	require.Nil(t, m.Listener())
	ok := m.Connect(context.Background(), "greenhouse", "s3cret")
	require.True(t, ok)
	assert.Equal(t, "greenhouse", assoc.ssid)
	assert.Equal(t, "s3cret", assoc.credential)
	assert.NotNil(t, m.Listener())
	assert.True(t, m.Connected())
}

func TestConnectGivesUpAfterAttempts(t *testing.T) {
	prober := &countingProber{upAfter: -1}
	m := NewManager(&recordingAssociator{}, prober, Opts{Attempts: 3, PollInterval: time.Millisecond, ListenAddr: "127.0.0.1:0"}, quietLogger())

	ok := m.Connect(context.Background(), "greenhouse", "")
	assert.False(t, ok)
	assert.Nil(t, m.Listener())
	// initial check, three polls and the final verdict
	assert.Equal(t, int32(5), atomic.LoadInt32(&prober.calls))
	assert.False(t, m.Connected())
}

func TestConnectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewManager(&recordingAssociator{}, &countingProber{upAfter: -1}, Opts{Attempts: 20, PollInterval: time.Hour, ListenAddr: "127.0.0.1:0"}, quietLogger())
	assert.False(t, m.Connect(ctx, "greenhouse", ""))
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":80", ListenAddr(80))
}

func TestSystemAssociatorOnlyLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	assert.NoError(t, SystemAssociator{Logger: logger}.Associate("greenhouse", ""))
	require.NotEmpty(t, hook.Entries)
	assert.Contains(t, hook.Entries[0].Message, "greenhouse")
	assert.Contains(t, hook.LastEntry().Message, "system supplicant")
}
