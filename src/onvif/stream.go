package onvif

import (
	"context"
	"strings"

	"github.com/use-go/onvif/media"
	xsdonvif "github.com/use-go/onvif/xsd/onvif"
)

// streamPrefixSafe replaces the credential block in log output.
const streamPrefixSafe = "rtsp://<user>:<password>@"

// ResolveStreamURI asks the camera for the RTSP address of the configured
// media profile and injects the credentials into it. Failures are logged
// and leave the previously resolved source untouched, a camera without a
// stream is still useful for PTZ.
func (s *CameraSession) ResolveStreamURI(ctx context.Context) {
	token, err := s.ResolveProfileToken(ctx)
	if err != nil {
		s.scope.Error("ResolveStreamURI: couldn't setup the stream: " + err.Error())
		return
	}
	request := media.GetStreamUri{
		StreamSetup: xsdonvif.StreamSetup{
			Stream: "RTP-Unicast",
			Transport: xsdonvif.Transport{
				Protocol: "RTSP",
			},
		},
		ProfileToken: xsdonvif.ReferenceToken(token),
	}
	body, err := s.caller.Call(ctx, request)
	if err != nil {
		s.scope.Error("ResolveStreamURI: couldn't setup the stream: " + err.Error())
		return
	}
	var response struct {
		MediaUri struct {
			Uri string `xml:"Uri"`
		} `xml:"MediaUri"`
	}
	if err := decodeResponse(body, "GetStreamUriResponse", &response); err != nil {
		s.scope.Error("ResolveStreamURI: " + err.Error())
		return
	}
	uri := response.MediaUri.Uri
	if uri == "" {
		s.scope.Error("ResolveStreamURI: the camera returned an empty stream address")
		return
	}

	s.mu.Lock()
	s.streamSource = strings.Replace(uri, "rtsp://", "rtsp://"+s.username+":"+s.password+"@", 1)
	s.streamSourceSafe = strings.Replace(uri, "rtsp://", streamPrefixSafe, 1)
	safe := s.streamSourceSafe
	s.mu.Unlock()

	s.scope.Debug("ResolveStreamURI: using " + safe)
}

// StreamSource is the RTSP address with credentials injected, empty when no
// stream was resolved. Never log this value, use StreamSourceForLog.
func (s *CameraSession) StreamSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamSource
}

// StreamSourceForLog is the RTSP address with the credentials masked.
func (s *CameraSession) StreamSourceForLog() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamSourceSafe
}
