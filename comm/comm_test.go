package comm_test

import (
	"io"
	"log"
	"net"
	"testing"

	"github.com/opticslab/goslm/comm"
)

func tcpEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal("could not listen, test aborted")
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			log.Println("new conn accepted")
			go func() { io.Copy(conn, conn) }()
		}
	}()
	return ln.Addr().String()
}

func TestSendRecvEcho(t *testing.T) {
	addr := tcpEchoServer(t)
	rd := comm.NewRemoteDevice(addr, false, 0)
	if err := rd.Open(); err != nil {
		t.Fatal(err)
	}
	defer rd.Close()
	resp, err := rd.SendRecv([]byte("PING"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "PING" {
		t.Errorf("expected the terminator stripped from the echo, got %q", resp)
	}
}

func TestSendBeforeOpen(t *testing.T) {
	rd := comm.NewRemoteDevice("localhost:1", false, 0)
	if err := rd.Send([]byte("PING")); err != comm.ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if _, err := rd.Recv(); err != comm.ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	rd := comm.NewRemoteDevice("localhost:1", false, 0)
	if err := rd.Close(); err != nil {
		t.Errorf("closing an unopened device should be a no-op, got %v", err)
	}
}
