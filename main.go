package main

import (
	"fmt"
	"os"
	"time"

	"github.com/tevino/abool"

	"github.com/homehub-io/onvif-agent/machinery/src/components"
	configService "github.com/homehub-io/onvif-agent/machinery/src/config"
	"github.com/homehub-io/onvif-agent/machinery/src/log"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
	"github.com/homehub-io/onvif-agent/machinery/src/routers"
)

func main() {

	const VERSION = "1.0"

	action := "run"
	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	configDirectory := "."
	if value := os.Getenv("AGENT_CONFIG_DIRECTORY"); value != "" {
		configDirectory = value
	}

	switch action {
	case "version":
		fmt.Println("You are currently running ONVIF Agent " + VERSION)

	case "run":
		{
			// Read the config on start, and pass it to the other functions
			// and features. Please note that this might be changed when
			// saving or updating the configuration through the REST api or
			// MQTT handler.
			configuration := &models.Configuration{
				Name: "agent",
			}
			configService.OpenConfig(configDirectory, configuration)

			// We will override the configuration with the environment variables
			configService.OverrideWithEnvironmentVariables(configuration)

			// Set timezone and logging
			timezone, err := time.LoadLocation(configuration.Config.Timezone)
			if err != nil {
				timezone = time.UTC
			}
			logLevel := os.Getenv("AGENT_LOG_LEVEL")
			if logLevel == "" {
				logLevel = "info"
			}
			// "console" gives a human readable format, the default is JSON.
			logOutput := os.Getenv("AGENT_LOG_OUTPUT")
			log.Log.Init(logLevel, logOutput, configDirectory, timezone)

			communication := &models.Communication{
				HandleBootstrap: make(chan string, 1),
				HandleONVIF:     make(chan models.PtzCommand, 1),
				IsConfiguring:   abool.New(),
			}

			registry := components.NewCameraRegistry()

			// Start the REST API.
			go routers.StartWebserver(configDirectory, configuration, communication, registry)

			// Bootstrapping the agent, this blocks until a stop comes in.
			components.Bootstrap(configDirectory, configuration, communication, registry)
		}
	default:
		fmt.Println("Sorry I don't understand :(")
	}
}
