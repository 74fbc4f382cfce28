package onvif

import (
	"errors"
	"strings"
)

// ErrNotReady is returned when a camera can't be reached while a session is
// being brought up. The caller is expected to retry the initialisation later.
var ErrNotReady = errors.New("camera is not ready")

// ErrUnreachable covers transport-level failures on an established session:
// connection refused, timeouts, DNS errors and truncated responses.
var ErrUnreachable = errors.New("camera is unreachable")

// ErrNoProfileToken is returned when no media profile token could be
// retrieved from the camera.
var ErrNoProfileToken = errors.New("no profile token")

// Fault is a SOAP-level rejection: the camera answered, but refused the
// request. The reason text is kept verbatim as cameras encode their actual
// failure cause in it.
type Fault struct {
	Code    string
	Subcode string
	Reason  string
}

func (f *Fault) Error() string {
	if f.Reason != "" {
		return "camera returned a fault: " + f.Reason
	}
	return "camera returned a fault: " + f.Code
}

// FaultKind classifies a PTZ fault by the reason text the camera reported.
type FaultKind int

const (
	// FaultUnknown is a fault that matches none of the known patterns.
	FaultUnknown FaultKind = iota
	// FaultMalformed means the camera rejects the PTZ request shape
	// altogether. PTZ is disabled on the session when this comes back.
	FaultMalformed
	// FaultBadPreset means the requested preset token doesn't exist on the
	// camera. A user input problem, the session stays fully functional.
	FaultBadPreset
)

// ClassifyPTZFault maps the reason text of a PTZ fault onto a FaultKind.
// Cameras in the field return "Bad Request" when they don't implement the
// operation, and mention the preset token when a preset lookup failed.
func ClassifyPTZFault(fault *Fault) FaultKind {
	switch {
	case strings.Contains(fault.Reason, "Bad Request"):
		return FaultMalformed
	case strings.Contains(fault.Reason, "preset token"):
		return FaultBadPreset
	}
	return FaultUnknown
}
