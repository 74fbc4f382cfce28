package onvif

import (
	"context"
	"errors"
	"testing"

	"github.com/use-go/onvif/ptz"

	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

func intPtr(value int) *int           { return &value }
func floatPtr(value float64) *float64 { return &value }

func TestPerformPTZPresetWinsOverContinuous(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)

	command := models.PtzCommand{
		Pan:      models.AxisInput{Token: models.DirectionLeft, Set: true},
		Duration: intPtr(0),
		Preset:   intPtr(2),
	}
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	names := recordedNames(caller)
	expected := []string{"GetProfiles", "GotoPreset"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, names)
		}
	}

	request := caller.recorded()[1].(ptz.GotoPreset)
	if string(request.PresetToken) != "2" {
		t.Errorf("expected preset token '2', got '%s'", request.PresetToken)
	}
	if string(request.ProfileToken) != "profile_0" {
		t.Errorf("expected profile token 'profile_0', got '%s'", request.ProfileToken)
	}
}

func TestPerformPTZContinuousMovePairsWithStop(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)

	command := models.PtzCommand{
		Pan:      models.AxisInput{Token: models.DirectionLeft, Set: true},
		Duration: intPtr(0),
	}
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	names := recordedNames(caller)
	expected := []string{"GetProfiles", "ContinuousMove", "Stop"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, names)
		}
	}

	move := caller.recorded()[1].(ptz.ContinuousMove)
	// LEFT resolves to -20, velocity is magnitude * step * speed.
	expectedVelocity := -20 * DefaultPTZStep * DefaultPTZSpeed
	if move.Velocity.PanTilt.X != expectedVelocity {
		t.Errorf("expected a pan velocity of %f, got %f", expectedVelocity, move.Velocity.PanTilt.X)
	}
	if move.Velocity.PanTilt.Y != 0 || move.Velocity.Zoom.X != 0 {
		t.Errorf("expected the other axes to stay still, got %+v", move.Velocity)
	}

	stop := caller.recorded()[2].(ptz.Stop)
	if stop.ProfileToken != move.ProfileToken {
		t.Error("the stop must target the same profile as the move")
	}
}

func TestPerformPTZRelativeMove(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)

	command := models.PtzCommand{
		Zoom:      models.AxisInput{Value: 5, Set: true},
		SpeedZoom: floatPtr(0.5),
	}
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	names := recordedNames(caller)
	expected := []string{"GetProfiles", "RelativeMove"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}

	move := caller.recorded()[1].(ptz.RelativeMove)
	if move.Translation.Zoom.X != 5*DefaultPTZStep {
		t.Errorf("expected a zoom translation of %f, got %f", 5*DefaultPTZStep, move.Translation.Zoom.X)
	}
	if move.Speed.Zoom.X != 0.5 {
		t.Errorf("the zoom speed override should be used, got %f", move.Speed.Zoom.X)
	}
	if move.Speed.PanTilt.X != DefaultPTZSpeed {
		t.Errorf("the pan speed should fall back to the default, got %f", move.Speed.PanTilt.X)
	}
}

func TestPerformPTZMalformedFaultDisablesPTZ(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	caller.faults["RelativeMove"] = &Fault{Reason: "HTTP request was malformed: Bad Request"}

	command := models.PtzCommand{
		Pan: models.AxisInput{Token: models.DirectionRight, Set: true},
	}
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("a classified fault must be handled, got %s", err)
	}
	if session.PTZAvailable() {
		t.Fatal("expected PTZ to be disabled")
	}

	// A disabled session must not talk to the camera anymore.
	caller.reset()
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(caller.recorded()) != 0 {
		t.Errorf("expected no calls after PTZ was disabled, got %v", recordedNames(caller))
	}
}

func TestPerformPTZMalformedFaultAtProfileResolutionDisablesPTZ(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	caller.faults["GetProfiles"] = &Fault{Reason: "HTTP request was malformed: Bad Request"}

	command := models.PtzCommand{
		Pan: models.AxisInput{Token: models.DirectionRight, Set: true},
	}
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("a classified fault must be handled, got %s", err)
	}
	if session.PTZAvailable() {
		t.Fatal("a fault during token resolution must be classified like any other PTZ fault")
	}
}

func TestPerformPTZUnknownPresetKeepsPTZ(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	caller.faults["GotoPreset"] = &Fault{Reason: "The requested preset token does not exist"}

	command := models.PtzCommand{Preset: intPtr(9)}
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("an unknown preset is a user mistake, not an error: %s", err)
	}
	if !session.PTZAvailable() {
		t.Error("PTZ must stay available after an unknown preset")
	}
}

func TestPerformPTZUnclassifiedFaultKeepsPTZ(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	caller.faults["RelativeMove"] = &Fault{Reason: "Something exotic happened"}

	command := models.PtzCommand{Pan: models.AxisInput{Value: 3, Set: true}}
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("an unclassified fault must be swallowed: %s", err)
	}
	if !session.PTZAvailable() {
		t.Error("PTZ must stay available after an unclassified fault")
	}
}

func TestPerformPTZTransportErrorPropagates(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	caller.unreachable["RelativeMove"] = true

	command := models.PtzCommand{Pan: models.AxisInput{Value: 3, Set: true}}
	err := session.PerformPTZ(context.Background(), command)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
	if !session.PTZAvailable() {
		t.Error("a transport error must not disable PTZ")
	}
}

func TestPerformPTZWithoutCapability(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)
	session.DisablePTZ()

	command := models.PtzCommand{Pan: models.AxisInput{Token: models.DirectionLeft, Set: true}}
	if err := session.PerformPTZ(context.Background(), command); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(caller.recorded()) != 0 {
		t.Errorf("expected no calls, got %v", recordedNames(caller))
	}
}

func TestContinuousMoveStopsOnCancel(t *testing.T) {
	caller := newFakeCaller()
	session := newTestSession(t, caller)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	command := models.PtzCommand{
		Pan:      models.AxisInput{Token: models.DirectionLeft, Set: true},
		Duration: intPtr(30),
	}
	done := make(chan error, 1)
	go func() {
		done <- session.PerformPTZ(ctx, command)
	}()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	names := recordedNames(caller)
	if len(names) == 0 || names[len(names)-1] != "Stop" {
		t.Errorf("the camera must be stopped when the hold is cancelled, got %v", names)
	}
}
