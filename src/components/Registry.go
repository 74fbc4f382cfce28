package components

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/homehub-io/onvif-agent/machinery/src/log"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
	"github.com/homehub-io/onvif-agent/machinery/src/onvif"
)

// CameraRegistry is the process-wide set of active camera sessions, keyed
// by the camera key from the configuration.
type CameraRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*onvif.CameraSession
}

func NewCameraRegistry() *CameraRegistry {
	return &CameraRegistry{
		sessions: make(map[string]*onvif.CameraSession),
	}
}

func (r *CameraRegistry) Add(session *onvif.CameraSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Key] = session
}

func (r *CameraRegistry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

func (r *CameraRegistry) Get(key string) (*onvif.CameraSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[key]
	return session, ok
}

// All returns a snapshot of the registered sessions, so callers can iterate
// without holding the registry lock during slow SOAP calls.
func (r *CameraRegistry) All() []*onvif.CameraSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*onvif.CameraSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// DispatchPTZ fans a PTZ command out to the targeted sessions and waits for
// all of them. Sessions run concurrently and failures are isolated, one
// camera refusing a command never blocks the others. Unknown target keys
// are logged and skipped.
func (r *CameraRegistry) DispatchPTZ(ctx context.Context, command models.PtzCommand) {
	id, _ := uuid.NewV4()
	correlation := id.String()

	var targets []*onvif.CameraSession
	if len(command.TargetKeys) == 0 {
		targets = r.All()
	} else {
		for _, key := range command.TargetKeys {
			session, ok := r.Get(key)
			if !ok {
				log.Log.Warning("DispatchPTZ (" + correlation + "): no camera with key '" + key + "'")
				continue
			}
			targets = append(targets, session)
		}
	}

	var group sync.WaitGroup
	for _, session := range targets {
		group.Add(1)
		go func(session *onvif.CameraSession) {
			defer group.Done()
			if err := session.PerformPTZ(ctx, command); err != nil {
				log.Log.Camera(session.Name, session.Xaddr()).Error("DispatchPTZ (" + correlation + "): " + err.Error())
			}
		}(session)
	}
	group.Wait()
}
