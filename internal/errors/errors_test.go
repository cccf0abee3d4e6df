package errors

import (
	"fmt"
	"testing"
)

func TestMimicError_Error(t *testing.T) {
	err := &MimicError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "no messages found for scope: U123",
	}

	expected := "NOT_FOUND: no messages found for scope: U123"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("user_id is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "user_id is required" {
		t.Errorf("Message = %q, want %q", err.Message, "user_id is required")
	}
}

func TestNewUnauthorized(t *testing.T) {
	err := NewUnauthorized("bad signature")

	if err.Code != ErrUnauthorized {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnauthorized)
	}
	if err.Status != 401 {
		t.Errorf("Status = %d, want 401", err.Status)
	}
}

func TestNewNoMessages(t *testing.T) {
	err := NewNoMessages("U123")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["scope"] != "U123" {
		t.Errorf("Details[scope] = %v, want %q", err.Details["scope"], "U123")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("/tmp/export")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Details["identifier"] != "/tmp/export" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "/tmp/export")
	}
}

func TestNewUpstream(t *testing.T) {
	err := NewUpstream("chat.postMessage", fmt.Errorf("channel_not_found"))

	if err.Code != ErrUpstream {
		t.Errorf("Code = %q, want %q", err.Code, ErrUpstream)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
	if err.Message != "chat.postMessage request failed: channel_not_found" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["service"] != "chat.postMessage" {
		t.Errorf("Details[service] = %v, want %q", err.Details["service"], "chat.postMessage")
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database connection failed"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		// Message should be generic (not leak internal details)
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "database connection failed" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "database connection failed")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNoMessages("U1"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNoMessages("U1"), ErrInvalidRequest) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("non-MimicError", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for non-MimicError")
		}
	})

	t.Run("wrapped MimicError", func(t *testing.T) {
		wrapped := fmt.Errorf("generate: %w", NewNoMessages("U1"))
		if !Is(wrapped, ErrNotFound) {
			t.Error("Is() = false, want true for wrapped MimicError")
		}
	})
}

func TestAs(t *testing.T) {
	orig := NewInvalidRequest("bad")
	if got := As(fmt.Errorf("ctx: %w", orig)); got != orig {
		t.Errorf("As() = %v, want original error", got)
	}

	got := As(fmt.Errorf("disk full"))
	if got.Code != ErrInternal {
		t.Errorf("As(plain).Code = %q, want %q", got.Code, ErrInternal)
	}
}

func TestNewConflict(t *testing.T) {
	err := NewConflict("message already stored")

	if err.Code != ErrConflict {
		t.Errorf("Code = %q, want %q", err.Code, ErrConflict)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
}
