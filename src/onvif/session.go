package onvif

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/tevino/abool"
	"github.com/use-go/onvif"
	"github.com/use-go/onvif/device"
	"github.com/use-go/onvif/ptz"

	"github.com/homehub-io/onvif-agent/machinery/src/log"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

const (
	// requestTimeout bounds every SOAP round trip.
	requestTimeout = 10 * time.Second
	// stopTimeout bounds the Stop call that ends a continuous move.
	stopTimeout = 5 * time.Second
	// maxClockSkew is how far the camera clock may drift from ours before
	// we warn about it. Digest authentication breaks on larger drifts.
	maxClockSkew = 5 * time.Second

	// DefaultPTZSpeed and DefaultPTZStep apply to axes that are not
	// configured on the camera.
	DefaultPTZSpeed = 1.0
	DefaultPTZStep  = 0.005
)

// CameraSession owns the ONVIF connection to a single camera: the SOAP
// transport, the negotiated capabilities and the resolved stream source.
// A session is safe for concurrent use; PTZ operations are serialised per
// session so a continuous move is never interleaved with its own stop.
type CameraSession struct {
	Key          string
	Name         string
	Host         string
	Port         int
	ProfileIndex int
	Speed        models.Axes
	Step         models.Axes

	username string
	password string

	scope        *log.Scope
	caller       Caller
	initialized  *abool.AtomicBool
	ptzAvailable *abool.AtomicBool
	ptzMu        sync.Mutex

	mu               sync.RWMutex
	streamSource     string
	streamSourceSafe string
	clockSkew        time.Duration
}

// NewCameraSession builds a session from the camera config. The caller is
// normally nil and gets created during Initialize; tests inject their own.
func NewCameraSession(cfg models.Camera, caller Caller) *CameraSession {
	session := &CameraSession{
		Key:          cfg.Key,
		Name:         cfg.Name,
		Host:         cfg.Host,
		Port:         cfg.Port,
		ProfileIndex: cfg.ProfileIndex,
		Speed:        cfg.PTZSpeed.Normalize(DefaultPTZSpeed),
		Step:         cfg.PTZStep.Normalize(DefaultPTZStep),
		username:     cfg.Username,
		password:     cfg.Password,
		caller:       caller,
		initialized:  abool.New(),
		ptzAvailable: abool.New(),
	}
	session.scope = log.Log.Camera(session.Name, session.Xaddr())
	return session
}

// Xaddr is the host:port the ONVIF services live on.
func (s *CameraSession) Xaddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Initialize negotiates the session with the camera: it connects, compares
// clocks, resolves the stream source and probes for PTZ support. A camera
// that can't be reached returns ErrNotReady so the caller can retry later;
// a camera that answers with a fault is likely misconfigured (bad
// credentials) and the error is returned as is.
func (s *CameraSession) Initialize(ctx context.Context) error {
	if s.caller == nil {
		dev, err := onvif.NewDevice(onvif.DeviceParams{
			Xaddr:    s.Xaddr(),
			Username: s.username,
			Password: s.password,
			HttpClient: &http.Client{
				Timeout: requestTimeout,
			},
		})
		if err != nil {
			s.scope.Warning("Initialize: couldn't connect: " + err.Error())
			return fmt.Errorf("%w: %s", ErrNotReady, err.Error())
		}
		s.caller = NewCaller(dev)
	}

	if err := s.checkClockSkew(ctx); err != nil {
		var fault *Fault
		if errors.As(err, &fault) {
			s.scope.Error("Initialize: the camera rejected us, verify the configured credentials: " + fault.Reason)
			return err
		}
		s.scope.Warning("Initialize: the camera didn't answer: " + err.Error())
		return fmt.Errorf("%w: %s", ErrNotReady, err.Error())
	}

	// A missing stream source is not fatal, PTZ-only cameras exist.
	s.ResolveStreamURI(ctx)

	if err := s.probePTZ(ctx); err != nil {
		// Only a fault tells us the camera has no PTZ service. A transport
		// failure says nothing about capabilities, so the whole negotiation
		// is retried later instead of losing PTZ for good.
		var fault *Fault
		if !errors.As(err, &fault) {
			s.scope.Warning("Initialize: couldn't probe for PTZ support: " + err.Error())
			return fmt.Errorf("%w: %s", ErrNotReady, err.Error())
		}
		s.scope.Warning("Initialize: the camera has no PTZ support: " + fault.Reason)
		s.ptzAvailable.UnSet()
	} else {
		s.ptzAvailable.Set()
	}

	s.initialized.Set()
	return nil
}

// checkClockSkew compares the camera clock against ours. Skew is recorded
// and only warned about, cameras with a drifting clock still stream fine.
func (s *CameraSession) checkClockSkew(ctx context.Context) error {
	body, err := s.caller.Call(ctx, device.GetSystemDateAndTime{})
	if err != nil {
		return err
	}
	var response struct {
		SystemDateAndTime struct {
			UTCDateTime struct {
				Time struct {
					Hour   int `xml:"Hour"`
					Minute int `xml:"Minute"`
					Second int `xml:"Second"`
				} `xml:"Time"`
				Date struct {
					Year  int `xml:"Year"`
					Month int `xml:"Month"`
					Day   int `xml:"Day"`
				} `xml:"Date"`
			} `xml:"UTCDateTime"`
		} `xml:"SystemDateAndTime"`
	}
	if err := decodeResponse(body, "GetSystemDateAndTimeResponse", &response); err != nil {
		s.scope.Debug("checkClockSkew: the camera didn't report its UTC time")
		return nil
	}
	utc := response.SystemDateAndTime.UTCDateTime
	if utc.Date.Year == 0 {
		return nil
	}
	cameraTime := time.Date(utc.Date.Year, time.Month(utc.Date.Month), utc.Date.Day,
		utc.Time.Hour, utc.Time.Minute, utc.Time.Second, 0, time.UTC)
	skew := cameraTime.Sub(time.Now().UTC())

	s.mu.Lock()
	s.clockSkew = skew
	s.mu.Unlock()

	if skew > maxClockSkew || skew < -maxClockSkew {
		s.scope.Warning("checkClockSkew: the camera clock is off by " + skew.String() + ", authentication might fail")
	}
	return nil
}

// probePTZ asks the camera for its PTZ configurations. A fault means the
// camera doesn't expose a PTZ service.
func (s *CameraSession) probePTZ(ctx context.Context) error {
	_, err := s.caller.Call(ctx, ptz.GetConfigurations{})
	return err
}

// Initialized reports whether the session negotiation completed.
func (s *CameraSession) Initialized() bool {
	return s.initialized.IsSet()
}

// PTZAvailable reports whether PTZ commands can be sent to this camera.
func (s *CameraSession) PTZAvailable() bool {
	return s.ptzAvailable.IsSet()
}

// DisablePTZ permanently marks the camera as not PTZ capable. Used when the
// camera turns out to reject the PTZ request shape at runtime.
func (s *CameraSession) DisablePTZ() {
	s.ptzAvailable.UnSet()
}

// ClockSkew is the drift between the camera clock and ours, measured during
// initialisation. Positive means the camera runs ahead.
func (s *CameraSession) ClockSkew() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clockSkew
}
