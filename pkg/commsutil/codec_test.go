package commsutil

import (
	"encoding/json"
	"testing"
)

func TestEncodePayload_Unsupported(t *testing.T) {
	if _, err := EncodePayload(make(chan int)); err == nil {
		t.Fatal("commsutil:codec_test - expected error for channel payload")
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "object", data: `{"o:title":"A"}`},
		{name: "invalid json", data: `{invalid}`, wantErr: true},
		{name: "empty data", data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target map[string]any
			err := DecodePayload([]byte(tt.data), &target)
			if tt.wantErr {
				if err == nil {
					t.Fatal("commsutil:codec_test - expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("commsutil:codec_test - unexpected error: %v", err)
			}
		})
	}
}

func TestDecodePayload_KeepsNumbers(t *testing.T) {
	var target map[string]any
	if err := DecodePayload([]byte(`{"id":9007199254740993}`), &target); err != nil {
		t.Fatalf("commsutil:codec_test - decode failed: %v", err)
	}
	n, ok := target["id"].(json.Number)
	if !ok {
		t.Fatalf("commsutil:codec_test - id type = %T, want json.Number", target["id"])
	}
	if n.String() != "9007199254740993" {
		t.Errorf("commsutil:codec_test - id = %s, want 9007199254740993", n.String())
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	type itemPayload struct {
		Resource string   `json:"resource"`
		Title    string   `json:"o:title"`
		Tags     []string `json:"tags"`
	}

	original := itemPayload{Resource: "items", Title: "A", Tags: []string{"map", "scan"}}
	data, err := EncodePayload(original)
	if err != nil {
		t.Fatalf("commsutil:codec_test - encode failed: %v", err)
	}

	var decoded itemPayload
	if err := DecodePayload(data, &decoded); err != nil {
		t.Fatalf("commsutil:codec_test - decode failed: %v", err)
	}
	if decoded.Resource != original.Resource || decoded.Title != original.Title {
		t.Errorf("commsutil:codec_test - decoded = %+v, want %+v", decoded, original)
	}
	if len(decoded.Tags) != 2 {
		t.Errorf("commsutil:codec_test - Tags length = %d, want 2", len(decoded.Tags))
	}
}
