package protocol

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrSessionBusy,
		ErrBadRequest,
		ErrNoPermission,
		ErrNoResource,
		ErrInvalidTarget,
		ErrRateLimit,
		ErrConflict,
		ErrBlocked,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestCodeOf(t *testing.T) {
	err := Rejectf(ErrNoResource, "Not enough tokens: need %d, have %d", 50, 10)
	if err.Error() != "Not enough tokens: need 50, have 10" {
		t.Fatalf("message=%q", err.Error())
	}
	if got := CodeOf(fmt.Errorf("place: %w", err)); got != ErrNoResource {
		t.Fatalf("wrapped code=%q", got)
	}
	if got := CodeOf(errors.New("boom")); got != ErrInternal {
		t.Fatalf("plain error code=%q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("nil code=%q", got)
	}
}
