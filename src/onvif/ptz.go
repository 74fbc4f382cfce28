package onvif

import (
	"context"
	"errors"
	"time"

	"github.com/use-go/onvif/ptz"
	xsdonvif "github.com/use-go/onvif/xsd/onvif"

	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

// PerformPTZ translates a directional or preset command into a single ONVIF
// PTZ operation. A preset wins over a continuous move, which wins over a
// relative move. Faults the camera reports are handled here and never
// retried: a camera that rejects the request shape gets PTZ disabled, an
// unknown preset is a user mistake, anything else is logged. Only transport
// failures propagate to the caller.
func (s *CameraSession) PerformPTZ(ctx context.Context, command models.PtzCommand) error {
	if !s.PTZAvailable() {
		s.scope.Warning("PerformPTZ: the camera doesn't support PTZ actions")
		return nil
	}
	s.ptzMu.Lock()
	defer s.ptzMu.Unlock()

	pan, tilt, zoom := command.Normalized()

	speedPan := override(command.SpeedPan, s.Speed.Pan)
	speedTilt := override(command.SpeedTilt, s.Speed.Tilt)
	speedZoom := override(command.SpeedZoom, s.Speed.Zoom)

	panStep := float64(pan) * s.Step.Pan
	tiltStep := float64(tilt) * s.Step.Tilt
	zoomStep := float64(zoom) * s.Step.Zoom

	var err error
	switch {
	case command.Preset != nil:
		err = s.gotoPreset(ctx, command.PresetToken())
	case command.Duration != nil:
		err = s.continuousMove(ctx, panStep*speedPan, tiltStep*speedTilt, zoomStep*speedZoom, *command.Duration)
	default:
		err = s.relativeMove(ctx, panStep, tiltStep, zoomStep, speedPan, speedTilt, speedZoom)
	}
	if err == nil {
		return nil
	}

	var fault *Fault
	if errors.As(err, &fault) {
		switch ClassifyPTZFault(fault) {
		case FaultMalformed:
			s.DisablePTZ()
			s.scope.Debug("PerformPTZ: the camera rejects PTZ requests, disabling PTZ for this camera")
		case FaultBadPreset:
			s.scope.Error("PerformPTZ: the camera doesn't have preset '" + command.PresetToken() + "' set up")
		default:
			s.scope.Error("PerformPTZ: the camera refused the request: " + fault.Reason)
		}
		return nil
	}
	s.scope.Error("PerformPTZ: couldn't reach the camera: " + err.Error())
	return err
}

func override(value *float64, def float64) float64 {
	if value != nil {
		return *value
	}
	return def
}

func (s *CameraSession) gotoPreset(ctx context.Context, preset string) error {
	token, err := s.ResolveProfileToken(ctx)
	if err != nil {
		return err
	}
	_, err = s.caller.Call(ctx, ptz.GotoPreset{
		ProfileToken: xsdonvif.ReferenceToken(token),
		PresetToken:  xsdonvif.ReferenceToken(preset),
	})
	return err
}

// continuousMove starts moving at the given velocities, holds for the
// requested number of seconds and stops. The stop is attempted even when
// the hold gets cancelled; it runs on a fresh context so it isn't dragged
// down with the one that was cancelled.
func (s *CameraSession) continuousMove(ctx context.Context, panVelocity float64, tiltVelocity float64, zoomVelocity float64, duration int) error {
	token, err := s.ResolveProfileToken(ctx)
	if err != nil {
		return err
	}
	profileToken := xsdonvif.ReferenceToken(token)
	_, err = s.caller.Call(ctx, ptz.ContinuousMove{
		ProfileToken: profileToken,
		Velocity: xsdonvif.PTZSpeed{
			PanTilt: xsdonvif.Vector2D{
				X: panVelocity,
				Y: tiltVelocity,
			},
			Zoom: xsdonvif.Vector1D{
				X: zoomVelocity,
			},
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if _, stopErr := s.caller.Call(stopCtx, ptz.Stop{
			ProfileToken: profileToken,
			PanTilt:      true,
			Zoom:         true,
		}); stopErr != nil {
			s.scope.Error("continuousMove: couldn't stop the camera: " + stopErr.Error())
		}
	}()
	select {
	case <-time.After(time.Duration(duration) * time.Second):
	case <-ctx.Done():
	}
	return nil
}

func (s *CameraSession) relativeMove(ctx context.Context, panStep float64, tiltStep float64, zoomStep float64, speedPan float64, speedTilt float64, speedZoom float64) error {
	token, err := s.ResolveProfileToken(ctx)
	if err != nil {
		return err
	}
	_, err = s.caller.Call(ctx, ptz.RelativeMove{
		ProfileToken: xsdonvif.ReferenceToken(token),
		Translation: xsdonvif.PTZVector{
			PanTilt: xsdonvif.Vector2D{
				X: panStep,
				Y: tiltStep,
			},
			Zoom: xsdonvif.Vector1D{
				X: zoomStep,
			},
		},
		Speed: xsdonvif.PTZSpeed{
			PanTilt: xsdonvif.Vector2D{
				X: speedPan,
				Y: speedTilt,
			},
			Zoom: xsdonvif.Vector1D{
				X: speedZoom,
			},
		},
	})
	return err
}
