package models

import (
	"encoding/json"
	"strconv"
)

// Direction tokens accepted on the pan, tilt and zoom axes of a PTZ
// command. A token resolves to a signed magnitude of DirectionStep.
const (
	DirectionUp      = "UP"
	DirectionDown    = "DOWN"
	DirectionLeft    = "LEFT"
	DirectionRight   = "RIGHT"
	DirectionZoomIn  = "ZOOM_IN"
	DirectionZoomOut = "ZOOM_OUT"
	DirectionNone    = "NONE"

	DirectionStep = 20
)

// AxisValues is a per-axis setting for pan, tilt and zoom. The JSON form is
// either a single number applied to all three axes, or an object with any
// subset of the axis keys. Normalize fills the axes that were left out.
type AxisValues struct {
	Pan  *float64 `json:"pan,omitempty"`
	Tilt *float64 `json:"tilt,omitempty"`
	Zoom *float64 `json:"zoom,omitempty"`
}

func (a *AxisValues) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		a.Pan, a.Tilt, a.Zoom = &scalar, &scalar, &scalar
		return nil
	}
	type plain AxisValues
	var values plain
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*a = AxisValues(values)
	return nil
}

// Axes is the resolved per-axis value, all three axes present.
type Axes struct {
	Pan  float64
	Tilt float64
	Zoom float64
}

// Normalize resolves the configured values into a full set of axes,
// substituting def for every axis that was not configured.
func (a AxisValues) Normalize(def float64) Axes {
	axes := Axes{Pan: def, Tilt: def, Zoom: def}
	if a.Pan != nil {
		axes.Pan = *a.Pan
	}
	if a.Tilt != nil {
		axes.Tilt = *a.Tilt
	}
	if a.Zoom != nil {
		axes.Zoom = *a.Zoom
	}
	return axes
}

// AxisInput is a single axis of an inbound PTZ command: either a direction
// token, a signed magnitude, or absent.
type AxisInput struct {
	Token string
	Value int
	Set   bool
}

func (a *AxisInput) UnmarshalJSON(data []byte) error {
	var magnitude int
	if err := json.Unmarshal(data, &magnitude); err == nil {
		a.Value = magnitude
		a.Set = true
		return nil
	}
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}
	a.Token = token
	a.Set = true
	return nil
}

func (a AxisInput) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	if a.Token != "" {
		return json.Marshal(a.Token)
	}
	return json.Marshal(a.Value)
}

// normalize resolves the axis into a signed magnitude. The negative and
// positive tokens map to -DirectionStep and +DirectionStep, NONE and absent
// map to zero, and a numeric value passes through untouched.
func (a AxisInput) normalize(negative string, positive string) int {
	if !a.Set {
		return 0
	}
	switch a.Token {
	case negative:
		return -DirectionStep
	case positive:
		return DirectionStep
	case DirectionNone:
		return 0
	case "":
		return a.Value
	default:
		return 0
	}
}

// PtzCommand is the inbound PTZ request as delivered over MQTT or the REST
// API. Preset takes precedence over a continuous move, which in turn takes
// precedence over a relative move.
type PtzCommand struct {
	Pan  AxisInput `json:"pan,omitempty"`
	Tilt AxisInput `json:"tilt,omitempty"`
	Zoom AxisInput `json:"zoom,omitempty"`

	Duration *int `json:"duration,omitempty"`
	Preset   *int `json:"preset,omitempty"`

	SpeedPan  *float64 `json:"speed_pan,omitempty"`
	SpeedTilt *float64 `json:"speed_tilt,omitempty"`
	SpeedZoom *float64 `json:"speed_zoom,omitempty"`

	// TargetKeys limits the command to the named cameras; empty means all.
	TargetKeys []string `json:"target_keys,omitempty"`
}

// Normalized resolves the three axes into signed magnitudes.
func (c PtzCommand) Normalized() (pan int, tilt int, zoom int) {
	pan = c.Pan.normalize(DirectionLeft, DirectionRight)
	tilt = c.Tilt.normalize(DirectionDown, DirectionUp)
	zoom = c.Zoom.normalize(DirectionZoomOut, DirectionZoomIn)
	return pan, tilt, zoom
}

// PresetToken renders the preset number the way it is sent on the wire.
func (c PtzCommand) PresetToken() string {
	if c.Preset == nil {
		return ""
	}
	return strconv.Itoa(*c.Preset)
}
