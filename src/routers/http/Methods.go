package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homehub-io/onvif-agent/machinery/src/components"
	"github.com/homehub-io/onvif-agent/machinery/src/config"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
	"github.com/homehub-io/onvif-agent/machinery/src/onvif"
)

// verifyTimeout bounds the full verification round trip against a camera
// that was not configured yet.
const verifyTimeout = 15 * time.Second

func cameraStatus(session *onvif.CameraSession) models.CameraStatus {
	return models.CameraStatus{
		Key:         session.Key,
		Name:        session.Name,
		Host:        session.Host,
		Initialized: session.Initialized(),
		PTZ:         session.PTZAvailable(),
		StreamURI:   session.StreamSourceForLog(),
		ClockSkew:   session.ClockSkew().String(),
	}
}

// GetCameras lists the registered cameras with their negotiated state.
func GetCameras(registry *components.CameraRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions := registry.All()
		statuses := make([]models.CameraStatus, 0, len(sessions))
		for _, session := range sessions {
			statuses = append(statuses, cameraStatus(session))
		}
		c.JSON(200, models.APIResponse{
			Data: statuses,
		})
	}
}

// GetCameraStream returns the RTSP address of a camera with the credentials
// injected, so the platform can hand it to its stream component. This is
// the only place the credentialed address leaves the agent.
func GetCameraStream(registry *components.CameraRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		session, ok := registry.Get(key)
		if !ok {
			c.JSON(404, models.APIResponse{
				Message: "No camera with key '" + key + "'",
			})
			return
		}
		source := session.StreamSource()
		if source == "" {
			c.JSON(404, models.APIResponse{
				Message: "Camera '" + key + "' has no stream",
			})
			return
		}
		c.JSON(200, models.APIResponse{
			Data: gin.H{
				"stream_uri": source,
			},
		})
	}
}

// DoPTZ fans a PTZ command out to the targeted cameras and waits for the
// dispatch to complete.
func DoPTZ(registry *components.CameraRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var command models.PtzCommand
		if err := c.BindJSON(&command); err != nil {
			c.JSON(400, models.APIResponse{
				Message: "Something went wrong: " + err.Error(),
			})
			return
		}
		registry.DispatchPTZ(c.Request.Context(), command)
		c.JSON(200, models.APIResponse{
			Data: "PTZ command dispatched",
		})
	}
}

// VerifyOnvif tries a full session negotiation against a camera that is not
// part of the configuration yet, and reports what was found.
func VerifyOnvif(c *gin.Context) {
	var onvifCredentials models.OnvifCredentials
	err := c.BindJSON(&onvifCredentials)
	if err != nil || onvifCredentials.Host == "" {
		c.JSON(400, models.APIResponse{
			Message: "Please provide a valid host",
		})
		return
	}

	camera := models.Camera{
		Key:      "verify",
		Name:     onvifCredentials.Host,
		Host:     onvifCredentials.Host,
		Port:     onvifCredentials.Port,
		Username: onvifCredentials.Username,
		Password: onvifCredentials.Password,
	}
	if camera.Port == 0 {
		camera.Port = config.DefaultPort
	}

	session := onvif.NewCameraSession(camera, nil)
	ctx, cancel := context.WithTimeout(c.Request.Context(), verifyTimeout)
	defer cancel()
	if err := session.Initialize(ctx); err != nil {
		c.JSON(400, models.APIResponse{
			Message: "Something went wrong: " + err.Error(),
		})
		return
	}
	c.JSON(200, models.APIResponse{
		Data: cameraStatus(session),
	})
}
