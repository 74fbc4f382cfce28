package onvif

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/use-go/onvif/device"
	"github.com/use-go/onvif/media"
	"github.com/use-go/onvif/ptz"

	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

const profilesBody = `<Envelope><Body><GetProfilesResponse>` +
	`<Profiles token="profile_0"><Name>mainStream</Name></Profiles>` +
	`<Profiles token="profile_1"><Name>subStream</Name></Profiles>` +
	`</GetProfilesResponse></Body></Envelope>`

const streamBody = `<Envelope><Body><GetStreamUriResponse>` +
	`<MediaUri><Uri>rtsp://192.168.1.10:554/stream1</Uri></MediaUri>` +
	`</GetStreamUriResponse></Body></Envelope>`

const emptyBody = `<Envelope><Body></Body></Envelope>`

// fakeCaller is a scripted transport. Requests are recorded, and per
// operation a fault or an unreachable transport can be simulated.
type fakeCaller struct {
	mu          sync.Mutex
	calls       []interface{}
	faults      map[string]*Fault
	unreachable map[string]bool
	clockOffset time.Duration
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		faults:      make(map[string]*Fault),
		unreachable: make(map[string]bool),
	}
}

func (f *fakeCaller) Call(ctx context.Context, request interface{}) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, request)
	f.mu.Unlock()

	name := requestName(request)
	if fault := f.faults[name]; fault != nil {
		return nil, fault
	}
	if f.unreachable[name] {
		return nil, fmt.Errorf("%w: connection refused", ErrUnreachable)
	}

	switch request.(type) {
	case device.GetSystemDateAndTime:
		now := time.Now().UTC().Add(f.clockOffset)
		return []byte(fmt.Sprintf(`<Envelope><Body><GetSystemDateAndTimeResponse><SystemDateAndTime><UTCDateTime>`+
			`<Time><Hour>%d</Hour><Minute>%d</Minute><Second>%d</Second></Time>`+
			`<Date><Year>%d</Year><Month>%d</Month><Day>%d</Day></Date>`+
			`</UTCDateTime></SystemDateAndTime></GetSystemDateAndTimeResponse></Body></Envelope>`,
			now.Hour(), now.Minute(), now.Second(), now.Year(), int(now.Month()), now.Day())), nil
	case media.GetProfiles:
		return []byte(profilesBody), nil
	case media.GetStreamUri:
		return []byte(streamBody), nil
	default:
		return []byte(emptyBody), nil
	}
}

func (f *fakeCaller) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeCaller) recorded() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]interface{}, len(f.calls))
	copy(calls, f.calls)
	return calls
}

func requestName(request interface{}) string {
	switch request.(type) {
	case device.GetSystemDateAndTime:
		return "GetSystemDateAndTime"
	case media.GetProfiles:
		return "GetProfiles"
	case media.GetStreamUri:
		return "GetStreamUri"
	case ptz.GetConfigurations:
		return "GetConfigurations"
	case ptz.ContinuousMove:
		return "ContinuousMove"
	case ptz.RelativeMove:
		return "RelativeMove"
	case ptz.GotoPreset:
		return "GotoPreset"
	case ptz.Stop:
		return "Stop"
	}
	return "unknown"
}

// recordedNames flattens the recorded requests to their operation names.
func recordedNames(f *fakeCaller) []string {
	calls := f.recorded()
	names := make([]string, len(calls))
	for i, call := range calls {
		names[i] = requestName(call)
	}
	return names
}

func testCamera() models.Camera {
	return models.Camera{
		Key:      "garden",
		Name:     "garden",
		Host:     "192.168.1.10",
		Port:     5000,
		Username: "admin",
		Password: "secret",
	}
}

func newTestSession(t *testing.T, caller *fakeCaller) *CameraSession {
	t.Helper()
	session := NewCameraSession(testCamera(), caller)
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("couldn't initialize the session: %s", err)
	}
	caller.reset()
	return session
}
