package signal

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the monitor board firmware.
const DefaultBaudRate = 115200

// SerialSource reads signal frames from a monitor board over a serial
// line. The board emits one frame per line:
//
//	S:<0|1> E:<0|1> V:<float>
//
// sense, emergency-open, and capacitor voltage respectively.
type SerialSource struct {
	port    serial.Port
	scanner *bufio.Scanner
	now     func() time.Time
}

// NewSerialSource opens the named port at the given baud rate. A zero
// baud selects DefaultBaudRate.
func NewSerialSource(portName string, baud int) (*SerialSource, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{BaudRate: baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &SerialSource{
		port:    port,
		scanner: bufio.NewScanner(port),
		now:     time.Now,
	}, nil
}

// Sample blocks until the board emits the next frame.
func (s *SerialSource) Sample() (Reading, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		r, err := parseFrame(line)
		if err != nil {
			// Garbled frames happen on connect; skip to the next one.
			continue
		}
		r.At = s.now()
		return r, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Reading{}, fmt.Errorf("serial read: %w", err)
	}
	return Reading{}, fmt.Errorf("serial port closed")
}

// Close releases the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

// parseFrame decodes one `S:<0|1> E:<0|1> V:<float>` monitor frame.
func parseFrame(line string) (Reading, error) {
	var r Reading
	var haveS, haveE, haveV bool

	for _, field := range strings.Fields(line) {
		key, val, found := strings.Cut(field, ":")
		if !found {
			return Reading{}, fmt.Errorf("malformed field %q", field)
		}
		switch key {
		case "S":
			b, err := parseBit(val)
			if err != nil {
				return Reading{}, fmt.Errorf("sense: %w", err)
			}
			r.ContactSense = b
			haveS = true
		case "E":
			b, err := parseBit(val)
			if err != nil {
				return Reading{}, fmt.Errorf("estop: %w", err)
			}
			r.EmergencyOpen = b
			haveE = true
		case "V":
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return Reading{}, fmt.Errorf("voltage: %w", err)
			}
			r.CapVoltage = v
			haveV = true
		default:
			return Reading{}, fmt.Errorf("unknown field %q", key)
		}
	}

	if !haveS || !haveE || !haveV {
		return Reading{}, fmt.Errorf("incomplete frame %q", line)
	}
	return r, nil
}
