package components

import (
	"context"
	"errors"
	"time"

	configService "github.com/homehub-io/onvif-agent/machinery/src/config"
	"github.com/homehub-io/onvif-agent/machinery/src/log"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
	"github.com/homehub-io/onvif-agent/machinery/src/onvif"
	routers "github.com/homehub-io/onvif-agent/machinery/src/routers/mqtt"
)

// retryInterval is how long we wait before retrying a camera that wasn't
// ready during initialisation.
const retryInterval = 30 * time.Second

func Bootstrap(configDirectory string, configuration *models.Configuration, communication *models.Communication, registry *CameraRegistry) {
	log.Log.Debug("Bootstrap: started")

	// We'll create a MQTT handler, through which PTZ commands arrive from
	// the automation platform.
	mqttClient := routers.ConfigureMQTT(configDirectory, configuration, communication)

	// Run the agent and fire up all the camera sessions. This blocks until
	// a signal comes in to be restarted, reconfigured or stopped.
	for {
		status := RunAgent(configuration, communication, registry)

		if status == "stop" {
			break
		}

		if status == "restart" {
			// We will re open the configuration, might have changed :O!
			configService.OpenConfig(configDirectory, configuration)
			configService.OverrideWithEnvironmentVariables(configuration)
		}

		// Reset the MQTT client, might have provided new information, so we need to reconnect.
		if routers.HasMQTTClientModified(configuration) {
			routers.DisconnectMQTT(mqttClient, &configuration.Config)
			mqttClient = routers.ConfigureMQTT(configDirectory, configuration, communication)
		}
	}

	routers.DisconnectMQTT(mqttClient, &configuration.Config)
	log.Log.Debug("Bootstrap: finished")
}

// RunAgent brings up a session for every configured camera and consumes PTZ
// commands until a bootstrap signal arrives. Cancelling the run context also
// interrupts continuous moves that are holding, their deferred stop still
// goes out.
func RunAgent(configuration *models.Configuration, communication *models.Communication, registry *CameraRegistry) string {
	log.Log.Debug("RunAgent: bootstrapping agent")

	ctx, cancel := context.WithCancel(context.Background())
	communication.Context = &ctx
	communication.CancelContext = &cancel

	// Sessions of a previous run are gone, the configuration might have
	// changed underneath them.
	for _, session := range registry.All() {
		registry.Remove(session.Key)
	}

	for _, camera := range configuration.Config.Cameras {
		session := onvif.NewCameraSession(camera, nil)
		registry.Add(session)
		go initializeSession(ctx, session)
	}

	for {
		select {
		case command := <-communication.HandleONVIF:
			registry.DispatchPTZ(ctx, command)
		case status := <-communication.HandleBootstrap:
			log.Log.Info("RunAgent: received bootstrap signal: " + status)
			cancel()
			return status
		}
	}
}

// initializeSession negotiates the session, retrying for as long as the
// camera is simply not ready. A camera that actively rejects us (bad
// credentials) is not retried, that needs a configuration change.
func initializeSession(ctx context.Context, session *onvif.CameraSession) {
	scope := log.Log.Camera(session.Name, session.Xaddr())
	for {
		err := session.Initialize(ctx)
		if err == nil {
			scope.Info("initializeSession: the camera is connected")
			return
		}
		if !errors.Is(err, onvif.ErrNotReady) {
			scope.Error("initializeSession: giving up on this camera: " + err.Error())
			return
		}
		scope.Warning("initializeSession: the camera is not ready yet, retrying in " + retryInterval.String())
		select {
		case <-time.After(retryInterval):
		case <-ctx.Done():
			return
		}
	}
}
