package entity

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateMessage(t *testing.T) {
	cases := []struct {
		name    string
		typ     MessageType
		content string
		fileURL string
		wantErr error
	}{
		{"plain text", MessageTypeText, "hello", "", nil},
		{"blank text", MessageTypeText, "   ", "", ErrEmptyMessage},
		{"oversized text", MessageTypeText, strings.Repeat("a", MaxMessageLength+1), "", ErrMessageTooLong},
		{"text at limit", MessageTypeText, strings.Repeat("a", MaxMessageLength), "", nil},
		{"image with file", MessageTypeImage, "", "https://cdn/x.png", nil},
		{"image without file", MessageTypeImage, "", "", ErrFileRequired},
		{"audio without file", MessageTypeAudio, "caption", "", ErrFileRequired},
		{"unknown type", MessageType("sticker"), "hi", "", ErrInvalidMessageType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMessage(tc.typ, tc.content, tc.fileURL)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ValidateMessage(%q) = %v, want %v", tc.typ, err, tc.wantErr)
			}
		})
	}
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	if PairKey(a, b) != PairKey(b, a) {
		t.Fatal("pair key must not depend on argument order")
	}
	if PairKey(a, b) == PairKey(a, uuid.New()) {
		t.Fatal("different pairs must have different keys")
	}
}
