package onvif

import (
	"context"
	"fmt"
	"strconv"

	"github.com/use-go/onvif/media"
)

// ResolveProfileToken fetches the media profiles of the camera and returns
// the token of the configured profile. When the camera doesn't provide the
// configured index, the last profile on the camera is used instead.
func (s *CameraSession) ResolveProfileToken(ctx context.Context) (string, error) {
	body, err := s.caller.Call(ctx, media.GetProfiles{})
	if err != nil {
		s.scope.Error("ResolveProfileToken: couldn't retrieve the media profiles: " + err.Error())
		// The transport error stays in the chain, callers classify faults.
		return "", fmt.Errorf("%w: %w", ErrNoProfileToken, err)
	}
	var response struct {
		Profiles []struct {
			Token string `xml:"token,attr"`
			Name  string `xml:"Name"`
		} `xml:"Profiles"`
	}
	if err := decodeResponse(body, "GetProfilesResponse", &response); err != nil {
		s.scope.Error("ResolveProfileToken: " + err.Error())
		return "", ErrNoProfileToken
	}
	if len(response.Profiles) == 0 {
		s.scope.Error("ResolveProfileToken: the camera has no media profiles")
		return "", ErrNoProfileToken
	}
	index := s.ProfileIndex
	if index < 0 || index >= len(response.Profiles) {
		s.scope.Warning("ResolveProfileToken: the camera doesn't provide profile " + strconv.Itoa(index) + ", using the last profile instead")
		index = len(response.Profiles) - 1
	}
	return response.Profiles[index].Token, nil
}
