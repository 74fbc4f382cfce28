package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofrs/uuid"

	"github.com/homehub-io/onvif-agent/machinery/src/log"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

// The broker settings the current client was built with, so a reconfigure
// knows whether a reconnect is needed.
var previousURI, previousUsername, previousPassword string

func ConfigureMQTT(configDirectory string, configuration *models.Configuration, communication *models.Communication) mqtt.Client {

	config := configuration.Config

	opts := mqtt.NewClientOptions()

	// We will set the MQTT endpoint to which we want to connect
	// and share and receive messages to/from.
	mqttURL := config.MQTTURI
	opts.AddBroker(mqttURL)
	log.Log.Info("ConfigureMQTT: Set broker uri " + mqttURL)

	// Our MQTT broker can have username/password credentials
	// to protect it from the outside.
	mqttUsername := config.MQTTUsername
	mqttPassword := config.MQTTPassword
	if mqttUsername != "" || mqttPassword != "" {
		opts.SetUsername(mqttUsername)
		opts.SetPassword(mqttPassword)
		log.Log.Info("ConfigureMQTT: Set username " + mqttUsername)
	}

	previousURI = mqttURL
	previousUsername = mqttUsername
	previousPassword = mqttPassword

	// Some extra options to make sure the connection behaves
	// properly. More information here: github.com/eclipse/paho.mqtt.golang.
	opts.SetCleanSession(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(30 * time.Second)

	// The random suffix avoids client id conflicts when multiple agents
	// share the same key by accident.
	random, _ := uuid.NewV4()
	mqttClientID := config.Key + "-" + random.String()[:8]
	opts.SetClientID(mqttClientID)
	log.Log.Info("ConfigureMQTT: Set ClientID " + mqttClientID)

	opts.OnConnect = func(c mqtt.Client) {

		// We managed to connect to the MQTT broker, hurray!
		log.Log.Info("ConfigureMQTT: " + mqttClientID + " connected to " + mqttURL)

		// Create a subscription to listen for PTZ commands.
		MQTTListenerHandlePTZ(c, configuration, communication)

		// Create a subscription to listen for restart/stop requests.
		MQTTListenerHandleAgent(c, configuration, communication)
	}

	mqc := mqtt.NewClient(opts)
	if token := mqc.Connect(); token.WaitTimeout(3 * time.Second) {
		if token.Error() != nil {
			log.Log.Error("ConfigureMQTT: unable to establish mqtt broker connection, error was: " + token.Error().Error())
		}
	}
	return mqc
}

// MQTTListenerHandlePTZ subscribes to the PTZ command topic of this agent.
// Commands are decoded and handed to the agent loop, which fans them out to
// the targeted cameras.
func MQTTListenerHandlePTZ(mqttClient mqtt.Client, configuration *models.Configuration, communication *models.Communication) {
	config := configuration.Config
	topicPTZ := fmt.Sprintf("homehub/onvif/%s", config.Key)
	mqttClient.Subscribe(topicPTZ, 0, func(c mqtt.Client, msg mqtt.Message) {
		var command models.PtzCommand
		if err := json.Unmarshal(msg.Payload(), &command); err != nil {
			log.Log.Error("MQTTListenerHandlePTZ: dropping unparsable command: " + err.Error())
			msg.Ack()
			return
		}
		communication.HandleONVIF <- command
		log.Log.Info("MQTTListenerHandlePTZ: received a PTZ command")
		msg.Ack()
	})
}

// MQTTListenerHandleAgent subscribes to the lifecycle topic of this agent,
// through which the platform can request a restart or stop.
func MQTTListenerHandleAgent(mqttClient mqtt.Client, configuration *models.Configuration, communication *models.Communication) {
	config := configuration.Config
	topicAgent := fmt.Sprintf("homehub/agent/%s", config.Key)
	mqttClient.Subscribe(topicAgent, 0, func(c mqtt.Client, msg mqtt.Message) {
		signal := string(msg.Payload())
		if signal != "restart" && signal != "stop" {
			log.Log.Warning("MQTTListenerHandleAgent: ignoring unknown signal '" + signal + "'")
			msg.Ack()
			return
		}
		select {
		case communication.HandleBootstrap <- signal:
		default:
		}
		log.Log.Info("MQTTListenerHandleAgent: received signal '" + signal + "'")
		msg.Ack()
	})
}

// HasMQTTClientModified reports whether the broker settings changed since
// the current client was configured.
func HasMQTTClientModified(configuration *models.Configuration) bool {
	config := configuration.Config
	return config.MQTTURI != previousURI ||
		config.MQTTUsername != previousUsername ||
		config.MQTTPassword != previousPassword
}

func DisconnectMQTT(mqttClient mqtt.Client, config *models.Config) {
	mqttClient.Disconnect(1000)
	log.Log.Info("DisconnectMQTT: disconnected from " + config.MQTTURI)
}
