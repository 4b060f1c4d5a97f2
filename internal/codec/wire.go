package codec

import (
	"fmt"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/nodepath"
	"github.com/vk/aether/internal/schema"
)

// Command is the wire form of comms.Command. State is carried as a plain
// CBOR map.
type Command struct {
	Variant string   `cbor:"variant" json:"variant" yaml:"variant"`
	Path    []string `cbor:"path" json:"path" yaml:"path"`
	Type    string   `cbor:"type,omitempty" json:"type,omitempty" yaml:"type,omitempty"`
	State   any      `cbor:"state,omitempty" json:"state,omitempty" yaml:"state,omitempty"`
}

// Notification is the wire form of comms.Notification. State is carried
// as a plain CBOR map for state notifications.
type Notification struct {
	Key    string `cbor:"key" json:"key"`
	Kind   string `cbor:"kind" json:"kind"`
	Detail string `cbor:"detail,omitempty" json:"detail,omitempty"`
	State  any    `cbor:"state,omitempty" json:"state,omitempty"`
}

// FromCommand converts a command to its wire form.
func FromCommand(c comms.Command) Command {
	w := Command{
		Variant: string(c.Variant),
		Path:    []string(c.Path),
		Type:    c.Type,
	}
	if c.Variant == comms.VariantUpdate {
		w.State = schema.ToNative(c.State)
	}
	return w
}

// ToCommand validates the wire form and converts it back to a command.
func (w Command) ToCommand() (comms.Command, error) {
	variant, err := comms.ParseVariant(w.Variant)
	if err != nil {
		return comms.Command{}, err
	}
	path, err := nodepath.New(w.Path...)
	if err != nil {
		return comms.Command{}, fmt.Errorf("path: %w", err)
	}
	if variant == comms.VariantDelete {
		return comms.Delete(path), nil
	}
	if w.Type == "" {
		return comms.Command{}, fmt.Errorf("update %s: type is required", path)
	}
	state, err := schema.FromNative(w.State)
	if err != nil {
		return comms.Command{}, fmt.Errorf("update %s: state: %w", path, err)
	}
	return comms.Update(path, w.Type, state), nil
}

// EncodeCommand encodes a command to CBOR.
func EncodeCommand(c comms.Command) ([]byte, error) {
	return Marshal(FromCommand(c))
}

// DecodeCommand decodes a CBOR command.
func DecodeCommand(data []byte) (comms.Command, error) {
	var w Command
	if err := Unmarshal(data, &w); err != nil {
		return comms.Command{}, fmt.Errorf("decode command: %w", err)
	}
	return w.ToCommand()
}

// EncodeNotification encodes a notification to CBOR.
func EncodeNotification(n comms.Notification) ([]byte, error) {
	w := Notification{Key: n.Key, Kind: string(n.Kind), Detail: n.Detail}
	if n.Kind == comms.KindState {
		w.State = schema.ToNative(n.State)
	}
	return Marshal(w)
}

// DecodeNotification decodes a CBOR notification.
func DecodeNotification(data []byte) (comms.Notification, error) {
	var w Notification
	if err := Unmarshal(data, &w); err != nil {
		return comms.Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	switch kind := comms.Kind(w.Kind); kind {
	case comms.KindRendered, comms.KindError:
		return comms.Notification{Key: w.Key, Kind: kind, Detail: w.Detail}, nil
	case comms.KindState:
		state, err := schema.FromNative(w.State)
		if err != nil {
			return comms.Notification{}, fmt.Errorf("decode notification: state of %s: %w", w.Key, err)
		}
		return comms.StateChanged(w.Key, state), nil
	default:
		return comms.Notification{}, fmt.Errorf("decode notification: unknown kind %q", w.Kind)
	}
}
