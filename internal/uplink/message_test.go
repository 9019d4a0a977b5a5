package uplink

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// validLine builds a well-formed uplink line with the given raw payload.
func validLine(t *testing.T, payload []byte) []byte {
	t.Helper()
	line, err := json.Marshal(map[string]any{
		"app_id":          "test-app",
		"dev_id":          "test-dev",
		"hardware_serial": "0004A30B001C1234",
		"port":            1,
		"counter":         42,
		"metadata": map[string]any{
			"time":      "2020-01-01T00:00:00Z",
			"longitude": 10.5,
			"latitude":  59.9,
			"altitude":  120.0,
		},
		"payload_raw": base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		t.Fatalf("marshal test line: %v", err)
	}
	return line
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 2, 3, 4, 17, 100, 255, 510, 511, 512} {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i * 7)
		}

		msg, err := Decode(validLine(t, payload))
		if err != nil {
			t.Fatalf("size %d: Decode: %v", size, err)
		}
		if msg.Payload.Len() != size {
			t.Errorf("size %d: payload length = %d", size, msg.Payload.Len())
		}
		if !bytes.Equal(msg.Payload.Bytes(), payload) {
			t.Errorf("size %d: payload bytes do not round-trip", size)
		}
	}
}

func TestDecodePayloadBoundary(t *testing.T) {
	// Exactly MaxPayloadSize decoded bytes must succeed.
	msg, err := Decode(validLine(t, make([]byte, MaxPayloadSize)))
	if err != nil {
		t.Fatalf("Decode at %d bytes: %v", MaxPayloadSize, err)
	}
	if msg.Payload.Len() != MaxPayloadSize {
		t.Errorf("payload length = %d, want %d", msg.Payload.Len(), MaxPayloadSize)
	}

	// One byte over must fail without truncation.
	_, err = Decode(validLine(t, make([]byte, MaxPayloadSize+1)))
	if err == nil {
		t.Fatalf("Decode at %d bytes succeeded, want error", MaxPayloadSize+1)
	}
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestDecodeMalformedBase64(t *testing.T) {
	for _, tc := range []struct {
		name    string
		encoded string
	}{
		{"bad length", "AQIDA"},
		{"invalid characters", "!@#$"},
		{"misplaced padding", "AQ==AQ=="},
		{"url alphabet", "-_-_"},
		{"embedded crlf", "AQID\r\n\r\n"},
		{"embedded newline", "AQ\n\nID"},
		{"leading whitespace", " AQ="},
	} {
		t.Run(tc.name, func(t *testing.T) {
			line := []byte(`{"app_id":"a","dev_id":"d","hardware_serial":"h","port":1,"counter":1,` +
				`"metadata":{"time":"t","longitude":0,"latitude":0,"altitude":0},` +
				`"payload_raw":"` + tc.encoded + `"}`)
			if _, err := Decode(line); err == nil {
				t.Errorf("Decode accepted %q", tc.encoded)
			}
		})
	}
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	fields := []string{
		"app_id", "dev_id", "hardware_serial", "port", "counter",
		"metadata", "payload_raw",
	}
	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			full := map[string]json.RawMessage{}
			if err := json.Unmarshal(validLine(t, []byte{1}), &full); err != nil {
				t.Fatalf("unmarshal template: %v", err)
			}
			delete(full, field)
			line, err := json.Marshal(full)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			_, err = Decode(line)
			if err == nil {
				t.Fatalf("Decode succeeded without %q", field)
			}
			if !strings.Contains(err.Error(), field) {
				t.Errorf("error %q does not name missing field %q", err, field)
			}
		})
	}
}

func TestDecodeRejectsMistypedFields(t *testing.T) {
	for _, tc := range []struct {
		name string
		line string
	}{
		{"port as string", `{"app_id":"a","dev_id":"d","hardware_serial":"h","port":"one","counter":1,"metadata":{"time":"t","longitude":0,"latitude":0,"altitude":0},"payload_raw":""}`},
		{"negative counter", `{"app_id":"a","dev_id":"d","hardware_serial":"h","port":1,"counter":-1,"metadata":{"time":"t","longitude":0,"latitude":0,"altitude":0},"payload_raw":""}`},
		{"payload as number", `{"app_id":"a","dev_id":"d","hardware_serial":"h","port":1,"counter":1,"metadata":{"time":"t","longitude":0,"latitude":0,"altitude":0},"payload_raw":7}`},
		{"metadata as array", `{"app_id":"a","dev_id":"d","hardware_serial":"h","port":1,"counter":1,"metadata":[],"payload_raw":""}`},
		{"not json at all", `not json`},
		{"empty app_id", `{"app_id":"","dev_id":"d","hardware_serial":"h","port":1,"counter":1,"metadata":{"time":"t","longitude":0,"latitude":0,"altitude":0},"payload_raw":""}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.line)); err == nil {
				t.Error("Decode succeeded, want error")
			}
		})
	}
}

func TestDecodeFieldFidelity(t *testing.T) {
	line := `{"app_id":"a1","dev_id":"d1","hardware_serial":"h1","port":1,"counter":2,` +
		`"metadata":{"time":"2020-01-01T00:00:00Z","longitude":1.5,"latitude":2.5,"altitude":3.5},` +
		`"payload_raw":"AQID"}`

	msg, err := Decode([]byte(line))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if msg.AppID != "a1" || msg.DevID != "d1" || msg.HardwareSerial != "h1" {
		t.Errorf("identifiers = %q %q %q", msg.AppID, msg.DevID, msg.HardwareSerial)
	}
	if msg.Port != 1 || msg.Counter != 2 {
		t.Errorf("port=%d counter=%d, want 1 2", msg.Port, msg.Counter)
	}
	md := msg.Metadata
	if md.Time != "2020-01-01T00:00:00Z" || md.Longitude != 1.5 || md.Latitude != 2.5 || md.Altitude != 3.5 {
		t.Errorf("metadata = %+v", md)
	}
	if !bytes.Equal(msg.Payload.Bytes(), []byte{0x01, 0x02, 0x03}) {
		t.Errorf("payload = %v, want [1 2 3]", msg.Payload.Bytes())
	}
}
