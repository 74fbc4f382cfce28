package routers

import (
	"github.com/homehub-io/onvif-agent/machinery/src/components"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
	"github.com/homehub-io/onvif-agent/machinery/src/routers/http"
)

func StartWebserver(configDirectory string, configuration *models.Configuration, communication *models.Communication, registry *components.CameraRegistry) {
	http.StartServer(configDirectory, configuration, communication, registry)
}
