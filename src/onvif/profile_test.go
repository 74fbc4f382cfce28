package onvif

import (
	"context"
	"errors"
	"testing"
)

func TestResolveProfileTokenConfiguredIndex(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	session.ProfileIndex = 1

	token, err := session.ResolveProfileToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if token != "profile_1" {
		t.Errorf("expected 'profile_1', got '%s'", token)
	}
}

func TestResolveProfileTokenFallsBackToLastProfile(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)

	for _, index := range []int{5, -1} {
		session.ProfileIndex = index
		token, err := session.ResolveProfileToken(context.Background())
		if err != nil {
			t.Fatalf("index %d: unexpected error: %s", index, err)
		}
		if token != "profile_1" {
			t.Errorf("index %d: expected the last profile, got '%s'", index, token)
		}
	}
}

func TestResolveProfileTokenFault(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	caller.faults["GetProfiles"] = &Fault{Reason: "Sender not authorized"}

	_, err := session.ResolveProfileToken(context.Background())
	if !errors.Is(err, ErrNoProfileToken) {
		t.Errorf("expected ErrNoProfileToken, got %v", err)
	}
	var fault *Fault
	if !errors.As(err, &fault) {
		t.Errorf("expected the camera fault to stay in the chain, got %v", err)
	}
}

func TestResolveProfileTokenKeepsTransportErrorInChain(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	caller.unreachable["GetProfiles"] = true

	_, err := session.ResolveProfileToken(context.Background())
	if !errors.Is(err, ErrNoProfileToken) {
		t.Errorf("expected ErrNoProfileToken, got %v", err)
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected the transport error to stay in the chain, got %v", err)
	}
}
