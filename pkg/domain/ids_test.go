package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseAccountID(t *testing.T) {
	valid := uuid.NewString()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid uuid", input: valid},
		{name: "empty string", input: "", wantErr: true},
		{name: "garbage", input: "not-a-uuid", wantErr: true},
		{name: "nil uuid", input: "00000000-0000-0000-0000-000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseAccountID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed.String() != tt.input {
				t.Fatalf("round trip mismatch: %q != %q", parsed.String(), tt.input)
			}
		})
	}
}

func TestTypedIDsAreDistinct(t *testing.T) {
	accountID := NewAccountID()
	eventID := NewEventID()

	if accountID.String() == eventID.String() {
		t.Fatal("fresh identifiers collided")
	}
	if accountID.IsNil() || eventID.IsNil() {
		t.Fatal("fresh identifiers must not be nil")
	}
	if (AccountID{}).String() != uuid.Nil.String() {
		t.Fatal("zero value should render as the nil UUID")
	}
	if !(AccountID{}).IsNil() {
		t.Fatal("zero value should be nil")
	}
}
