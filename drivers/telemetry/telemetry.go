// Package telemetry streams pad changes over a serial link for debugging.
//
// Each change is sent as a 7 byte frame:
//
//	0xA5 | port | buttons hi | buttons lo | pressed hi | pressed lo | crc
//
// where pressed holds the buttons that went down since the previous frame
// and crc is the CRC-8 of the first six bytes.
package telemetry

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sigurn/crc8"

	"github.com/clktmr/pcebridge/debug"
	"github.com/clktmr/pcebridge/pad"
)

const (
	Sync      = 0xa5
	FrameSize = 7
	Ports     = 2
)

var (
	ErrChecksum = errors.New("telemetry: checksum mismatch")
	ErrSync     = errors.New("telemetry: lost frame sync")
)

var crcTable = crc8.MakeTable(crc8.CRC8)

type Frame struct {
	Port    uint8
	Buttons pad.Buttons
	Pressed pad.Buttons
}

func (f Frame) String() string {
	return fmt.Sprintf("port %d: %v (pressed %v)", f.Port, f.Buttons, f.Pressed)
}

// AppendBinary appends the encoded frame to b.
func (f Frame) AppendBinary(b []byte) ([]byte, error) {
	start := len(b)
	b = append(b, Sync, f.Port)
	b = binary.BigEndian.AppendUint16(b, uint16(f.Buttons))
	b = binary.BigEndian.AppendUint16(b, uint16(f.Pressed))
	return append(b, crc8.Checksum(b[start:], crcTable)), nil
}

// Writer sends a frame whenever a port's snapshot changes.
type Writer struct {
	w        io.Writer
	trackers [Ports]pad.Tracker
	buf      [FrameSize]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Record notes the snapshot b of port and sends a frame if it differs from
// the previous one.
func (w *Writer) Record(port int, b pad.Buttons) error {
	if port < 0 || port >= Ports {
		return fmt.Errorf("telemetry: no port %d", port)
	}
	t := &w.trackers[port]
	t.Update(b)
	if t.Changed() == 0 {
		return nil
	}
	f := Frame{Port: uint8(port), Buttons: t.Down(), Pressed: t.Pressed()}
	buf, err := f.AppendBinary(w.buf[:0])
	debug.AssertErrNil(err)
	_, err = w.w.Write(buf)
	return err
}

type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next frame.  If the stream doesn't start with a sync
// byte, Next skips up to the next one and returns ErrSync, the frame follows
// with the next call.
func (r *Reader) Next() (Frame, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return Frame{}, err
	}
	if b != Sync {
		for {
			p, err := r.r.Peek(1)
			if err != nil {
				return Frame{}, err
			}
			if p[0] == Sync {
				return Frame{}, ErrSync
			}
			r.r.ReadByte()
		}
	}

	var buf [FrameSize]byte
	buf[0] = Sync
	if _, err := io.ReadFull(r.r, buf[1:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, err
	}
	if crc8.Checksum(buf[:FrameSize-1], crcTable) != buf[FrameSize-1] {
		return Frame{}, ErrChecksum
	}
	return Frame{
		Port:    buf[1],
		Buttons: pad.Buttons(binary.BigEndian.Uint16(buf[2:])),
		Pressed: pad.Buttons(binary.BigEndian.Uint16(buf[4:])),
	}, nil
}
