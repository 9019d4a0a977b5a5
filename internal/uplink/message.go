// Package uplink defines the decoded uplink message model and the bounded
// Base64 payload decode.
//
// An uplink message is one device-to-network telemetry event as forwarded by
// the network bridge: identifiers, protocol counters, location metadata, and
// an opaque binary payload. The payload arrives Base64-encoded and is decoded
// into a fixed-capacity buffer; the decode rejects oversized input before
// writing, so device-controlled data can never overrun the buffer.
package uplink

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxPayloadSize is the maximum uplink payload size in bytes, as defined by
// the network.
const MaxPayloadSize = 512

var ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

// Payload is the opaque binary blob attached to an uplink message. Backing
// storage is a fixed buffer of MaxPayloadSize bytes; only the first size
// bytes are meaningful.
type Payload struct {
	bytes [MaxPayloadSize]byte
	size  int
}

// Bytes returns the decoded payload. The returned slice aliases the
// payload's backing buffer and is valid for the lifetime of the message.
func (p *Payload) Bytes() []byte {
	return p.bytes[:p.size]
}

// Len returns the decoded payload length in bytes.
func (p *Payload) Len() int {
	return p.size
}

// decodeBase64 decodes a standard Base64 string into the fixed buffer.
//
// The input is restricted to the standard alphabet plus padding before
// decoding: base64.Encoding.Decode silently skips CR and LF, which would
// let whitespace-laced input through. The exact decoded length is computed
// from the encoded length and trailing padding before any byte is written;
// input that would decode past MaxPayloadSize is rejected up front rather
// than truncated. A misplaced padding character makes the decoder stop with
// an error before it reaches the final group, so writes stay within the
// precomputed length either way.
func (p *Payload) decodeBase64(encoded string) error {
	if len(encoded)%4 != 0 {
		return fmt.Errorf("invalid base64 payload: length %d is not a multiple of 4", len(encoded))
	}
	for i := 0; i < len(encoded); i++ {
		if !isBase64Byte(encoded[i]) {
			return fmt.Errorf("invalid base64 payload: illegal character %q", encoded[i])
		}
	}
	need := len(encoded) / 4 * 3
	if strings.HasSuffix(encoded, "==") {
		need -= 2
	} else if strings.HasSuffix(encoded, "=") {
		need -= 1
	}
	if need > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes > %d", ErrPayloadTooLarge, need, MaxPayloadSize)
	}

	n, err := base64.StdEncoding.Decode(p.bytes[:], []byte(encoded))
	if err != nil {
		p.size = 0
		return fmt.Errorf("invalid base64 payload: %w", err)
	}
	p.size = n
	return nil
}

func isBase64Byte(c byte) bool {
	return c >= 'A' && c <= 'Z' ||
		c >= 'a' && c <= 'z' ||
		c >= '0' && c <= '9' ||
		c == '+' || c == '/' || c == '='
}

// UplinkMessage is one decoded telemetry event.
type UplinkMessage struct {
	AppID          string
	DevID          string
	HardwareSerial string
	Port           uint32
	Counter        uint32
	Metadata       UplinkMetadata
	Payload        Payload
}

// UplinkMetadata carries the bridge-supplied event time and position. Time is
// stored verbatim; it is never parsed or validated here.
type UplinkMetadata struct {
	Time      string
	Longitude float64
	Latitude  float64
	Altitude  float64
}

// wireMessage mirrors the bridge's JSON schema. Fields are pointers so a
// missing key is distinguishable from a zero value; every field is required.
type wireMessage struct {
	AppID          *string       `json:"app_id"`
	DevID          *string       `json:"dev_id"`
	HardwareSerial *string       `json:"hardware_serial"`
	Port           *uint32       `json:"port"`
	Counter        *uint32       `json:"counter"`
	Metadata       *wireMetadata `json:"metadata"`
	PayloadRaw     *string       `json:"payload_raw"`
}

type wireMetadata struct {
	Time      *string  `json:"time"`
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
	Altitude  *float64 `json:"altitude"`
}

func (w *wireMessage) missingField() string {
	switch {
	case w.AppID == nil:
		return "app_id"
	case w.DevID == nil:
		return "dev_id"
	case w.HardwareSerial == nil:
		return "hardware_serial"
	case w.Port == nil:
		return "port"
	case w.Counter == nil:
		return "counter"
	case w.Metadata == nil:
		return "metadata"
	case w.Metadata.Time == nil:
		return "metadata.time"
	case w.Metadata.Longitude == nil:
		return "metadata.longitude"
	case w.Metadata.Latitude == nil:
		return "metadata.latitude"
	case w.Metadata.Altitude == nil:
		return "metadata.altitude"
	case w.PayloadRaw == nil:
		return "payload_raw"
	}
	return ""
}

// Decode parses one JSON-encoded uplink message. It fails on structurally
// invalid JSON, a missing or mistyped field, an empty identifier, malformed
// Base64, or a payload decoding to more than MaxPayloadSize bytes.
func Decode(line []byte) (*UplinkMessage, error) {
	var w wireMessage
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("parse uplink message: %w", err)
	}
	if name := w.missingField(); name != "" {
		return nil, fmt.Errorf("parse uplink message: missing field %q", name)
	}
	if *w.AppID == "" || *w.DevID == "" || *w.HardwareSerial == "" {
		return nil, errors.New("parse uplink message: empty identifier")
	}

	msg := &UplinkMessage{
		AppID:          *w.AppID,
		DevID:          *w.DevID,
		HardwareSerial: *w.HardwareSerial,
		Port:           *w.Port,
		Counter:        *w.Counter,
		Metadata: UplinkMetadata{
			Time:      *w.Metadata.Time,
			Longitude: *w.Metadata.Longitude,
			Latitude:  *w.Metadata.Latitude,
			Altitude:  *w.Metadata.Altitude,
		},
	}
	if err := msg.Payload.decodeBase64(*w.PayloadRaw); err != nil {
		return nil, err
	}
	return msg, nil
}
