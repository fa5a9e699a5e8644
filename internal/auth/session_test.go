package auth

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSession_SetAndCurrent(t *testing.T) {
	s := NewSession()
	defer s.Close()

	if s.Current() != nil {
		t.Error("expected nil identity before sign-in")
	}

	id := &Identity{UID: "u1", Email: "a@b.cm", DisplayName: "Awa"}
	s.Set(id)

	got := s.Current()
	if got == nil || got.UID != "u1" {
		t.Errorf("expected identity u1, got %+v", got)
	}
}

func TestSession_ObserverReceivesIdentityAndNil(t *testing.T) {
	s := NewSession()
	defer s.Close()

	ch, unsubscribe := s.OnAuthStateChange()
	defer unsubscribe()

	s.Set(&Identity{UID: "u1"})
	select {
	case got := <-ch:
		if got == nil || got.UID != "u1" {
			t.Errorf("expected identity u1, got %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for sign-in notification")
	}

	s.Set(nil) // sign-out pushes nil
	select {
	case got := <-ch:
		if got != nil {
			t.Errorf("expected nil on sign-out, got %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for sign-out notification")
	}
}

func TestSession_UnsubscribeStopsDelivery(t *testing.T) {
	s := NewSession()
	defer s.Close()

	ch, unsubscribe := s.OnAuthStateChange()
	unsubscribe()

	s.Set(&Identity{UID: "u1"})

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}
}

func TestLoginMessage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{CodeInvalidCredential, MsgBadCredentials},
		{CodeWrongPassword, MsgBadCredentials},
		{CodeUserNotFound, MsgBadCredentials},
		{CodeInvalidEmail, MsgInvalidEmail},
		{CodeUserDisabled, MsgUserDisabled},
		{CodeTooManyRequests, MsgTooManyRequests},
		{"auth/unknown", MsgLoginFailed},
	}
	for _, tt := range tests {
		if got := LoginMessage(tt.code); got != tt.want {
			t.Errorf("LoginMessage(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestRegisterMessage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{CodeEmailInUse, MsgEmailInUse},
		{CodeInvalidEmail, MsgInvalidEmail},
		{CodeWeakPassword, MsgWeakPassword},
		{"auth/unknown", MsgRegisterFailed},
	}
	for _, tt := range tests {
		if got := RegisterMessage(tt.code); got != tt.want {
			t.Errorf("RegisterMessage(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
