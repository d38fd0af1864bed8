// Package comm implements the control-channel protocol between a spawned
// plugin execution and its controller. The wire format is a fixed 8-byte
// little-endian header (message type, payload length) followed by the
// payload. The only message this subsystem sends is the "execution finished"
// control frame, with an empty payload; no acknowledgement is read back.
package comm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Message type bits. The control bit is combined with a control code in the
// same word, e.g. MsgTypeCtrl|CtrlFinished.
const (
	MsgTypeCtrl uint32 = 1 << 16

	// CtrlFinished signals that a plugin's execution has ended, independent
	// of success or failure.
	CtrlFinished uint32 = 1
)

// Maximum accepted payload size; control frames are tiny, anything larger is
// a corrupt stream.
const maxPayload = 1 << 20

// Message is one decoded control-channel frame.
type Message struct {
	Type    uint32
	Payload []byte
}

// Finished reports whether the message is an "execution finished" control
// frame.
func (m Message) Finished() bool {
	return m.Type&MsgTypeCtrl != 0 && m.Type&CtrlFinished != 0
}

// Send writes one frame to w.
func Send(w io.Writer, msgType uint32, payload []byte) error {
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], msgType)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write control header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write control payload: %w", err)
	}
	return nil
}

// SendFinished writes the "execution finished" control frame to w.
func SendFinished(w io.Writer) error {
	return Send(w, MsgTypeCtrl|CtrlFinished, nil)
}

// ReadMessage reads one frame from r. It returns io.EOF unwrapped when the
// stream ends cleanly between frames.
func ReadMessage(r io.Reader) (Message, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return Message{}, io.EOF
		}
		return Message{}, fmt.Errorf("read control header: %w", err)
	}
	msg := Message{Type: binary.LittleEndian.Uint32(header[0:4])}
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxPayload {
		return Message{}, fmt.Errorf("control payload too large: %d bytes", length)
	}
	if length > 0 {
		msg.Payload = make([]byte, length)
		if _, err := io.ReadFull(r, msg.Payload); err != nil {
			return Message{}, fmt.Errorf("read control payload: %w", err)
		}
	}
	return msg, nil
}
