// Package im models chat messages as ordered lists of typed elements.
// Plain elements (text, mentions, replies, faces) are self-contained;
// media elements wrap a store-backed handle so message pipelines move
// media ids around instead of payloads.
package im

import (
	"encoding/json"
	"fmt"

	"github.com/AltairaLabs/MediaKit/media"
)

// Element kinds, used as the JSON type discriminator.
const (
	KindText  = "text"
	KindAt    = "at"
	KindReply = "reply"
	KindFace  = "face"
	KindImage = "image"
	KindVoice = "voice"
	KindVideo = "video"
	KindFile  = "file"
)

// Element is one piece of a chat message. Implementations marshal to a
// JSON object carrying a "type" discriminator that UnmarshalElement
// dispatches on.
type Element interface {
	json.Marshaler

	// Kind returns the discriminator value.
	Kind() string

	// ToPlain renders the element as plain text, for logging and for
	// feeding text-only consumers.
	ToPlain() string
}

// TextElement is plain message text.
type TextElement struct {
	Text string `json:"text"`
}

// NewTextElement returns a text element.
func NewTextElement(text string) *TextElement {
	return &TextElement{Text: text}
}

func (e *TextElement) Kind() string    { return KindText }
func (e *TextElement) ToPlain() string { return e.Text }

func (e *TextElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{KindText, e.Text})
}

// AtElement mentions a user by platform id.
type AtElement struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname,omitempty"`
}

// NewAtElement returns a mention of the given user.
func NewAtElement(userID, nickname string) *AtElement {
	return &AtElement{UserID: userID, Nickname: nickname}
}

func (e *AtElement) Kind() string { return KindAt }

func (e *AtElement) ToPlain() string {
	if e.Nickname != "" {
		return "@" + e.Nickname
	}
	return "@" + e.UserID
}

func (e *AtElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		UserID   string `json:"user_id"`
		Nickname string `json:"nickname,omitempty"`
	}{KindAt, e.UserID, e.Nickname})
}

// ReplyElement quotes an earlier message by id.
type ReplyElement struct {
	MessageID string `json:"message_id"`
}

// NewReplyElement returns a reply marker for the given message id.
func NewReplyElement(messageID string) *ReplyElement {
	return &ReplyElement{MessageID: messageID}
}

func (e *ReplyElement) Kind() string    { return KindReply }
func (e *ReplyElement) ToPlain() string { return "[Reply:" + e.MessageID + "]" }

func (e *ReplyElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		MessageID string `json:"message_id"`
	}{KindReply, e.MessageID})
}

// FaceElement is a platform emoticon referenced by id.
type FaceElement struct {
	FaceID string `json:"face_id"`
}

// NewFaceElement returns a face element for the given emoticon id.
func NewFaceElement(faceID string) *FaceElement {
	return &FaceElement{FaceID: faceID}
}

func (e *FaceElement) Kind() string    { return KindFace }
func (e *FaceElement) ToPlain() string { return "[Face:" + e.FaceID + "]" }

func (e *FaceElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		FaceID string `json:"face_id"`
	}{KindFace, e.FaceID})
}

// UnmarshalElement decodes one element by its type discriminator. Media
// elements come back detached: their accessors fail until Attach binds
// them to a store.
func UnmarshalElement(data []byte) (Element, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding element: %w", err)
	}

	switch probe.Type {
	case KindText:
		var e TextElement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil

	case KindAt:
		var e AtElement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil

	case KindReply:
		var e ReplyElement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil

	case KindFace:
		var e FaceElement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil

	case KindImage, KindVoice, KindVideo, KindFile:
		var w mediaWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		if w.MediaID == "" {
			return nil, fmt.Errorf("%w: %s element without media_id", media.ErrInvalidArgument, probe.Type)
		}
		core := mediaElement{id: w.MediaID}
		switch probe.Type {
		case KindImage:
			return &ImageElement{core}, nil
		case KindVoice:
			return &VoiceElement{core}, nil
		case KindVideo:
			return &VideoElement{core}, nil
		default:
			return &FileElement{core}, nil
		}

	case "":
		return nil, fmt.Errorf("%w: element without type", media.ErrInvalidArgument)

	default:
		return nil, fmt.Errorf("%w: unknown element type %q", media.ErrInvalidArgument, probe.Type)
	}
}
