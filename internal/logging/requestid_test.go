package logging

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if !strings.HasPrefix(id, "req-") {
		t.Errorf("GenerateRequestID() = %q, want req- prefix", id)
	}

	// Verify uniqueness
	id2 := GenerateRequestID()
	if id == id2 {
		t.Errorf("GenerateRequestID() generated duplicate IDs: %s", id)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	id := "test1234"

	// Without ID
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID(empty context) = %q, want empty string", got)
	}

	// With ID
	ctx = WithRequestID(ctx, id)
	if got := GetRequestID(ctx); got != id {
		t.Errorf("GetRequestID() = %q, want %q", got, id)
	}
}

func TestRequestIDFromHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/health", nil)
	r.Header.Set(HeaderRequestID, "client-abc")
	if got := RequestIDFromHeader(r); got != "client-abc" {
		t.Errorf("RequestIDFromHeader() = %q, want client-abc", got)
	}

	r.Header.Del(HeaderRequestID)
	if got := RequestIDFromHeader(r); !strings.HasPrefix(got, "req-") {
		t.Errorf("RequestIDFromHeader() = %q, want generated id", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "", want: LevelInfo},
		{in: "DEBUG", want: LevelDebug},
		{in: "warning", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "silent", want: LevelSilent},
		{in: "loud", want: LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEnabled(t *testing.T) {
	defer SetLevel(CurrentLevel())

	SetLevel(LevelWarn)
	if Enabled(LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !Enabled(LevelError) {
		t.Error("error should be enabled at warn level")
	}

	SetLevel(LevelSilent)
	if Enabled(LevelError) {
		t.Error("nothing should be enabled at silent level")
	}
}
