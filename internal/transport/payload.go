package transport

import (
	"fmt"
	"io"

	"github.com/vk/aether/internal/codec"
	"github.com/vk/aether/internal/comms"
)

// payloadBytes extracts the raw bytes of a binary socket.io argument.
// Depending on the parser, attachments arrive as []byte or as a buffer
// implementing io.Reader.
func payloadBytes(arg any) ([]byte, error) {
	switch v := arg.(type) {
	case []byte:
		return v, nil
	case io.Reader:
		return io.ReadAll(v)
	default:
		return nil, fmt.Errorf("unsupported payload of type %T", arg)
	}
}

// decodeCommand accepts a CBOR command or its JSON object form.
func decodeCommand(arg any) (comms.Command, error) {
	if m, ok := arg.(map[string]any); ok {
		data, err := codec.Marshal(m)
		if err != nil {
			return comms.Command{}, err
		}
		return codec.DecodeCommand(data)
	}
	data, err := payloadBytes(arg)
	if err != nil {
		return comms.Command{}, err
	}
	return codec.DecodeCommand(data)
}

func decodeNotification(arg any) (comms.Notification, error) {
	data, err := payloadBytes(arg)
	if err != nil {
		return comms.Notification{}, err
	}
	return codec.DecodeNotification(data)
}

// count converts the number carried by a "synced" event.
func count(arg any) (int, error) {
	switch v := arg.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("unexpected synced payload of type %T", arg)
	}
}
