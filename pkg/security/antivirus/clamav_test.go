package antivirus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClamd accepts one connection per call, reassembles the INSTREAM
// payload and answers with reply(payload).
func fakeClamd(t *testing.T, reply func(cmd string, payload []byte) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				r := bufio.NewReader(conn)
				cmd, err := r.ReadString(0)
				if err != nil {
					return
				}
				cmd = strings.TrimRight(cmd, "\x00")

				var payload bytes.Buffer
				if cmd == "zINSTREAM" {
					for {
						var size uint32
						if err := binary.Read(r, binary.BigEndian, &size); err != nil {
							return
						}
						if size == 0 {
							break
						}
						if _, err := io.CopyN(&payload, r, int64(size)); err != nil {
							return
						}
					}
				}
				_, _ = conn.Write([]byte(reply(cmd, payload.Bytes()) + "\x00"))
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func TestClamAVScanner_Clean(t *testing.T) {
	received := make(chan []byte, 1)
	addr := fakeClamd(t, func(cmd string, payload []byte) string {
		received <- payload
		return "stream: OK"
	})

	data := bytes.Repeat([]byte("a"), chunkSize*2+17)
	res := NewClamAVScanner(addr, time.Second).Scan(context.Background(), "cv.pdf", data)

	assert.True(t, res.Clean())
	assert.Equal(t, "clamav", res.ScannerName)
	assert.Equal(t, data, <-received)
}

func TestClamAVScanner_Infected(t *testing.T) {
	addr := fakeClamd(t, func(string, []byte) string {
		return "stream: Eicar-Test-Signature FOUND"
	})

	res := NewClamAVScanner(addr, time.Second).Scan(context.Background(), "eicar.txt", []byte("X5O!P%@AP"))

	assert.NoError(t, res.Error)
	assert.True(t, res.Infected)
	assert.Equal(t, "Eicar-Test-Signature", res.ThreatName)
	assert.False(t, res.Clean())
}

func TestClamAVScanner_ScanError(t *testing.T) {
	addr := fakeClamd(t, func(string, []byte) string {
		return "INSTREAM size limit exceeded. ERROR"
	})

	res := NewClamAVScanner(addr, time.Second).Scan(context.Background(), "big.pdf", []byte("x"))

	assert.Error(t, res.Error)
	assert.False(t, res.Clean())
}

func TestClamAVScanner_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	res := NewClamAVScanner(addr, time.Second).Scan(context.Background(), "cv.pdf", []byte("x"))

	assert.ErrorContains(t, res.Error, "failed to connect to clamd")
	assert.False(t, res.Clean())
}

func TestClamAVScanner_Ping(t *testing.T) {
	addr := fakeClamd(t, func(cmd string, _ []byte) string {
		if cmd == "zPING" {
			return "PONG"
		}
		return "UNKNOWN COMMAND"
	})

	assert.NoError(t, NewClamAVScanner(addr, time.Second).Ping(context.Background()))
}

func TestNew(t *testing.T) {
	assert.IsType(t, &NoOpScanner{}, New(""))
	assert.IsType(t, &ClamAVScanner{}, New("localhost:3310"))

	res := NewNoOpScanner().Scan(context.Background(), "a.txt", []byte("x"))
	assert.True(t, res.Clean())
}
