package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Firehose event decoding errors.
var (
	ErrInvalidPayload    = errors.New("invalid event payload")
	ErrMissingExternalID = errors.New("missing external ID in event")
	ErrMissingArticle    = errors.New("missing article data in event")
	ErrUnsupportedKind   = errors.New("unsupported event kind")
	ErrMissingTitle      = errors.New("missing article title in event")
	ErrMissingSource     = errors.New("missing article source in event")
)

// Event kinds emitted by the firehose.
const (
	KindArticle = "article" // new or updated article
	KindDelete  = "delete"  // article retraction
	KindPing    = "ping"    // keepalive, carries no article
)

// Event represents the top-level message structure from the firehose.
// The firehose sends article upserts, retractions, and keepalive pings.
type Event struct {
	// Kind is the message type ("article", "delete", "ping")
	Kind string `cbor:"kind" json:"kind"`

	// TimeUS is the event timestamp in microseconds
	TimeUS int64 `cbor:"time_us" json:"time_us"`

	// ExternalID identifies the article at the provider (required for delete)
	ExternalID string `cbor:"external_id,omitempty" json:"external_id,omitempty"`

	// Article contains the article payload (when Kind == "article")
	Article *ArticleEvent `cbor:"article,omitempty" json:"article,omitempty"`
}

// ArticleEvent is the article payload carried by a firehose event.
type ArticleEvent struct {
	ExternalID  string    `cbor:"external_id" json:"external_id"`
	Title       string    `cbor:"title" json:"title"`
	URL         string    `cbor:"url,omitempty" json:"url,omitempty"`
	Source      string    `cbor:"source" json:"source"`
	Author      string    `cbor:"author,omitempty" json:"author,omitempty"`
	Category    string    `cbor:"category,omitempty" json:"category,omitempty"`
	PublishedAt time.Time `cbor:"published_at" json:"published_at"`
}

// DecodeEvent decodes a firehose event from CBOR or JSON.
// The firehose negotiates CBOR framing on binary messages and falls back to
// JSON on text messages, so both encodings must be accepted.
func DecodeEvent(data []byte) (*Event, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPayload
	}

	var evt Event
	if looksLikeJSON(data) {
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return &evt, nil
	}

	dec := cbor.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &evt, nil
}

// Validate checks the event for required fields given its kind.
func (e *Event) Validate() error {
	switch e.Kind {
	case KindPing:
		return nil
	case KindDelete:
		if e.ExternalID == "" {
			return ErrMissingExternalID
		}
		return nil
	case KindArticle:
		if e.Article == nil {
			return ErrMissingArticle
		}
		if e.Article.ExternalID == "" {
			return ErrMissingExternalID
		}
		if e.Article.Title == "" {
			return ErrMissingTitle
		}
		if e.Article.Source == "" {
			return ErrMissingSource
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, e.Kind)
	}
}

// EncodeEvent encodes an event to CBOR bytes.
// This is useful for testing round-trip encoding/decoding.
func EncodeEvent(evt *Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	if err := enc.Encode(evt); err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return buf.Bytes(), nil
}

// looksLikeJSON reports whether the payload starts with a JSON object or
// array delimiter after optional whitespace.
func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
