/*Package comm provides the line-oriented transport used to talk to the
measurement instruments in this module (serial or TCP, e.g. a
spectrometer on an RS232 bridge or a terminal server port).

Embed RemoteDevice in a device type and write methods on top of SendRecv.
Commands and replies are terminated lines; the terminator defaults to a
carriage return and can be overridden by the embedding type.
*/
package comm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

var (
	terminator = byte('\r')

	// ErrNotConnected is generated when Send or Recv is called before Open.
	ErrNotConnected = errors.New("comm: not connected to remote")

	// ErrTerminatorNotFound is generated when the termination byte is not
	// found in a response.
	ErrTerminatorNotFound = errors.New("comm: termination byte not found")
)

// A SendRecver can exchange one framed command for one framed reply.
type SendRecver interface {
	SendRecv([]byte) ([]byte, error)
}

/*RemoteDevice is a line-framed connection to an instrument at Addr.
Serial connections need a Baud; TCP connections use host:port addresses.

Open retries with exponential backoff; lab serial bridges drop the first
connection after power-up more often than not.
*/
type RemoteDevice struct {
	Addr     string
	IsSerial bool
	Baud     int
	Timeout  time.Duration
	Conn     io.ReadWriteCloser
}

// NewRemoteDevice creates a new RemoteDevice instance.  baud is ignored
// for TCP addresses.
func NewRemoteDevice(addr string, isSerial bool, baud int) *RemoteDevice {
	return &RemoteDevice{Addr: addr, IsSerial: isSerial, Baud: baud, Timeout: 3 * time.Second}
}

func (rd *RemoteDevice) open() error {
	var (
		conn io.ReadWriteCloser
		err  error
	)
	if rd.IsSerial {
		conn, err = serial.OpenPort(&serial.Config{
			Name:        rd.Addr,
			Baud:        rd.Baud,
			ReadTimeout: rd.Timeout})
	} else {
		conn, err = TCPSetup(rd.Addr, rd.Timeout)
	}
	if err != nil {
		return err
	}
	rd.Conn = conn
	return nil
}

// Open the connection, setting the Conn variable.  Refused connections
// fail immediately; everything else is retried with backoff for a few
// seconds before giving up.
func (rd *RemoteDevice) Open() error {
	op := func() error {
		err := rd.open()
		if err != nil && strings.Contains(strings.ToLower(err.Error()), "refused") {
			return backoff.Permanent(err)
		}
		return err
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
	if err != nil {
		return fmt.Errorf("comm: open %s: %w", rd.Addr, err)
	}
	return nil
}

// Close the connection, nil-ing the Conn variable
func (rd *RemoteDevice) Close() error {
	if rd.Conn == nil {
		return nil
	}
	err := rd.Conn.Close()
	if err == nil {
		rd.Conn = nil
	}
	return err
}

// TxTerminator returns the transmission termination byte
func (rd *RemoteDevice) TxTerminator() byte {
	return terminator
}

// RxTerminator returns the receipt termination byte
func (rd *RemoteDevice) RxTerminator() byte {
	return terminator
}

// Send writes data to the remote with the Tx terminator appended
func (rd *RemoteDevice) Send(b []byte) error {
	if rd.Conn == nil {
		return ErrNotConnected
	}
	b = append(b, rd.TxTerminator())
	_, err := rd.Conn.Write(b)
	return err
}

// Recv receives data from the remote and strips the Rx terminator
func (rd *RemoteDevice) Recv() ([]byte, error) {
	if rd.Conn == nil {
		return nil, ErrNotConnected
	}
	term := rd.RxTerminator()
	buf, err := bufio.NewReader(rd.Conn).ReadBytes(term)
	if err != nil {
		return []byte{}, err
	}
	if bytes.HasSuffix(buf, []byte{term}) {
		return buf[:len(buf)-1], nil
	}
	return buf, ErrTerminatorNotFound
}

// SendRecv sends a buffer after appending the Tx terminator,
// then returns the response with the Rx terminator stripped
func (rd *RemoteDevice) SendRecv(b []byte) ([]byte, error) {
	if err := rd.Send(b); err != nil {
		return []byte{}, err
	}
	return rd.Recv()
}

// TCPSetup opens a new TCP connection and sets a timeout on connect,
// read, and write
func TCPSetup(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)
	return conn, nil
}
