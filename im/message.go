package im

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AltairaLabs/MediaKit/media"
)

// Message is one chat message: routing metadata plus an ordered list of
// elements. It marshals to JSON and back; media elements decode in the
// detached state and need Attach before their content is reachable.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Channel   string    `json:"channel,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Elements  []Element `json:"elements"`
}

// NewMessage returns a message stamped with a generated id and the
// current time.
func NewMessage(sender, channel string, elements ...Element) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Channel:   channel,
		Timestamp: time.Now().UTC(),
		Elements:  elements,
	}
}

// ToPlain renders the message as plain text by concatenating the plain
// forms of its elements.
func (m *Message) ToPlain() string {
	var b strings.Builder
	for _, el := range m.Elements {
		b.WriteString(el.ToPlain())
	}
	return b.String()
}

// Media returns the media-backed elements in order.
func (m *Message) Media() []MediaElement {
	var out []MediaElement
	for _, el := range m.Elements {
		if me, ok := el.(MediaElement); ok {
			out = append(out, me)
		}
	}
	return out
}

// MediaIDs returns the media ids carried by the message, in element
// order. Callers use these to bind message media to a longer-lived
// owner before the message references are released.
func (m *Message) MediaIDs() []string {
	var ids []string
	for _, me := range m.Media() {
		ids = append(ids, me.MediaID())
	}
	return ids
}

// Images returns the image elements in order.
func (m *Message) Images() []*ImageElement {
	var out []*ImageElement
	for _, el := range m.Elements {
		if img, ok := el.(*ImageElement); ok {
			out = append(out, img)
		}
	}
	return out
}

// Voices returns the voice elements in order.
func (m *Message) Voices() []*VoiceElement {
	var out []*VoiceElement
	for _, el := range m.Elements {
		if v, ok := el.(*VoiceElement); ok {
			out = append(out, v)
		}
	}
	return out
}

// Attach binds every media element to the store. Elements the store no
// longer knows contribute errors; the remaining elements still attach.
func (m *Message) Attach(store *media.Store) error {
	var errs []error
	for _, me := range m.Media() {
		if err := me.Attach(store); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UnmarshalJSON decodes the envelope and dispatches each element by its
// type discriminator.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string            `json:"id"`
		Sender    string            `json:"sender"`
		Channel   string            `json:"channel"`
		Timestamp time.Time         `json:"timestamp"`
		Elements  []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var elements []Element
	for i, rawEl := range raw.Elements {
		el, err := UnmarshalElement(rawEl)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		elements = append(elements, el)
	}

	m.ID = raw.ID
	m.Sender = raw.Sender
	m.Channel = raw.Channel
	m.Timestamp = raw.Timestamp
	m.Elements = elements
	return nil
}
