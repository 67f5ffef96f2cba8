package conn

import (
	"testing"
	"time"
)

type fakeTransport struct {
	closeCalls int
}

func (f *fakeTransport) SendRaw(b []byte) bool         { return true }
func (f *fakeTransport) ReceiveRaw() ([]byte, bool)    { return nil, false }
func (f *fakeTransport) InterruptRead()                {}
func (f *fakeTransport) Close() error                  { f.closeCalls++; return nil }
func (f *fakeTransport) RemoteAddr() string            { return "10.0.0.1" }

func TestNewAssignsIDAndAddr(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft, "10.0.0.1")
	if c.ID == "" {
		t.Error("expected a non-empty id")
	}
	if c.RemoteAddr != "10.0.0.1" {
		t.Errorf("expected RemoteAddr to be set, got %q", c.RemoteAddr)
	}
	if c.IsClosed() {
		t.Error("expected a fresh connection to be open")
	}
}

func TestCloseIsIdempotentAndClosesTransport(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft, "10.0.0.1")

	c.Close()
	c.Close()

	if !c.IsClosed() {
		t.Error("expected IsClosed to report true after Close")
	}
	if ft.closeCalls != 1 {
		t.Errorf("expected the transport to be closed exactly once, got %d", ft.closeCalls)
	}
	select {
	case <-c.Closed():
	default:
		t.Error("expected Closed() channel to be closed")
	}
}

func TestMarkRelayDoneIsIdempotent(t *testing.T) {
	c := New(&fakeTransport{}, "10.0.0.1")

	select {
	case <-c.RelayDone():
		t.Fatal("expected RelayDone to be open before MarkRelayDone")
	default:
	}

	c.MarkRelayDone()
	c.MarkRelayDone()

	select {
	case <-c.RelayDone():
	case <-time.After(time.Second):
		t.Fatal("expected RelayDone to close after MarkRelayDone")
	}
}
