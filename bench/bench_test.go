package bench

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/visa"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
timeout: 2s
gpib_port: /dev/ttyUSB0
instruments:
  scope:
    resource: "TCPIP0::192.168.1.10::5025::SOCKET"
    models: ["SDS1104X-E"]
  load:
    resource: "GPIB0::5::INSTR"
    timeout: 10s
  psu:
    models: ["UDP3305S"]
    baud_rate: 115200
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "/dev/ttyUSB0", cfg.GPIBPort)
	require.Len(t, cfg.Instruments, 3)

	scope := cfg.Instruments["scope"]
	assert.Equal(t, "TCPIP0::192.168.1.10::5025::SOCKET", scope.Resource)
	assert.Equal(t, []string{"SDS1104X-E"}, scope.Models)

	load := cfg.Instruments["load"]
	assert.Equal(t, 10*time.Second, load.Timeout)

	psu := cfg.Instruments["psu"]
	assert.Empty(t, psu.Resource)
	assert.Equal(t, 115200, psu.BaudRate)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
instruments:
  scope:
    resource: "TCPIP0::10.0.0.2::SOCKET"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "instruments: [not, a, map]")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bench config")
}

func TestConnectUnknownName(t *testing.T) {
	cfg := &Config{Timeout: time.Second}

	_, _, err := cfg.Connect(context.Background(), "scope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"scope"`)
}

// startInstrumentServer runs a one-connection SCPI responder on loopback and
// returns its resource identifier.
func startInstrumentServer(t *testing.T, idn string) string {
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
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					if strings.TrimSpace(scanner.Text()) == "*IDN?" {
						fmt.Fprintf(conn, "%s\n", idn)
					}
				}
			}(conn)
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("TCPIP0::127.0.0.1::%d::SOCKET", port)
}

func TestConnect(t *testing.T) {
	resource := startInstrumentServer(t, "Siglent Technologies,SDS1104X-E,SDSMMEBD3R1234,8.2.6.1.37R2")

	cfg := &Config{
		Timeout: time.Second,
		Instruments: map[string]Instrument{
			"scope": {
				Resource: resource,
				Models:   []string{"SDS1104X-E"},
			},
		},
	}

	sess, id, err := cfg.Connect(context.Background(), "scope")
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, "SDS1104X-E", id.Model)
	assert.Equal(t, resource, sess.Resource())
}

func TestConnectWrongModel(t *testing.T) {
	resource := startInstrumentServer(t, "RIGOL TECHNOLOGIES,DL3021A,DL3A000001,00.01.05")

	cfg := &Config{
		Timeout: time.Second,
		Instruments: map[string]Instrument{
			"scope": {
				Resource: resource,
				Models:   []string{"SDS1104X-E"},
			},
		},
	}

	_, _, err := cfg.Connect(context.Background(), "scope")
	require.ErrorIs(t, err, visa.ErrNotFound)
}
