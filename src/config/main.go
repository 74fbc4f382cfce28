package config

import (
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/InVisionApp/conjungo"

	"github.com/homehub-io/onvif-agent/machinery/src/log"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

// Factory defaults for a camera entry. The password is a well known vendor
// default, SetDefaults warns loudly when a camera still runs on it.
const (
	DefaultPort     = 5000
	DefaultUsername = "admin"
	DefaultPassword = "888888"
)

// ReadUserConfig reads the user configuration of the agent. This returns a
// models.User struct including the username, password and role used to
// authenticate against the REST API.
func ReadUserConfig(configDirectory string) (userConfig models.User) {
	for {
		jsonFile, err := os.Open(configDirectory + "/data/config/user.json")
		if err != nil {
			log.Log.Error("Config file is not found " + configDirectory + "/data/config/user.json, trying again in 5s: " + err.Error())
			time.Sleep(5 * time.Second)
		} else {
			log.Log.Info("Successfully Opened user.json")
			byteValue, _ := os.ReadFile(configDirectory + "/data/config/user.json")
			err = json.Unmarshal(byteValue, &userConfig)
			if err != nil {
				log.Log.Error("JSON file not valid: " + err.Error())
			} else {
				jsonFile.Close()
				break
			}
			time.Sleep(5 * time.Second)
		}
		jsonFile.Close()
	}
	return
}

// OpenConfig loads the agent configuration. A deployment can ship a global
// config next to the agent-specific one; the two are merged with the custom
// values winning over the global ones.
func OpenConfig(configDirectory string, configuration *models.Configuration) {

	// Open device config
	for {
		jsonFile, err := os.Open(configDirectory + "/data/config/config.json")
		if err != nil {
			log.Log.Error("Config file is not found " + configDirectory + "/data/config/config.json" + ", trying again in 5s.")
			time.Sleep(5 * time.Second)
		} else {
			log.Log.Info("Successfully Opened config.json from " + configuration.Name)
			byteValue, _ := os.ReadFile(configDirectory + "/data/config/config.json")
			err = json.Unmarshal(byteValue, &configuration.Config)
			jsonFile.Close()
			if err != nil {
				log.Log.Error("JSON file not valid: " + err.Error())
			} else {
				err = json.Unmarshal(byteValue, &configuration.CustomConfig)
				if err != nil {
					log.Log.Error("JSON file not valid: " + err.Error())
				} else {
					break
				}
			}
			time.Sleep(5 * time.Second)
		}
		jsonFile.Close()
	}

	// A fleet deployment can place a global.json next to config.json, with
	// settings shared by all agents (broker address, credentials).
	globalFile := configDirectory + "/data/config/global.json"
	if byteValue, err := os.ReadFile(globalFile); err == nil {
		var globalConfig models.Config
		if err := json.Unmarshal(byteValue, &globalConfig); err != nil {
			log.Log.Error("Global config not valid: " + err.Error())
		} else {
			configuration.GlobalConfig = globalConfig

			opts := conjungo.NewOptions()
			opts.SetTypeMergeFunc(
				reflect.TypeOf(""),
				func(t, s reflect.Value, o *conjungo.Options) (reflect.Value, error) {
					targetStr, _ := t.Interface().(string)
					sourceStr, _ := s.Interface().(string)
					finalStr := targetStr
					if sourceStr != "" {
						finalStr = sourceStr
					}
					return reflect.ValueOf(finalStr), nil
				},
			)

			// Reset main configuration Config, merge the global settings in
			// and override them with the custom config.
			configuration.Config = models.Config{}
			conjungo.Merge(&configuration.Config, configuration.GlobalConfig, opts)
			conjungo.Merge(&configuration.Config, configuration.CustomConfig, opts)

			// Merge cameras manually because it's an array.
			if len(configuration.CustomConfig.Cameras) > 0 {
				configuration.Config.Cameras = configuration.CustomConfig.Cameras
			} else {
				configuration.Config.Cameras = configuration.GlobalConfig.Cameras
			}
		}
	}

	SetDefaults(&configuration.Config)
}

// SetDefaults fills in the factory defaults for every camera that doesn't
// configure them. A camera still running the default password is a security
// problem and gets flagged in the logs.
func SetDefaults(config *models.Config) {
	for i := range config.Cameras {
		camera := &config.Cameras[i]
		if camera.Port == 0 {
			camera.Port = DefaultPort
		}
		if camera.Username == "" {
			camera.Username = DefaultUsername
		}
		if camera.Password == "" {
			camera.Password = DefaultPassword
		}
		if camera.Name == "" {
			camera.Name = camera.Key
		}
		if camera.Password == DefaultPassword {
			log.Log.Camera(camera.Name, camera.Host).Warning("SetDefaults: this camera uses the vendor default password, please change it")
		}
	}
}

// OverrideWithEnvironmentVariables overrides the configuration with
// environment variables. Camera settings can only be overridden for the
// first configured camera, container deployments typically run one.
func OverrideWithEnvironmentVariables(configuration *models.Configuration) {
	environmentVariables := os.Environ()
	for _, env := range environmentVariables {
		if strings.Contains(env, "AGENT_") {
			key := strings.Split(env, "=")[0]
			value := os.Getenv(key)
			switch key {

			/* General configuration */
			case "AGENT_KEY":
				configuration.Config.Key = value
			case "AGENT_NAME":
				configuration.Config.Name = value
			case "AGENT_TIMEZONE":
				configuration.Config.Timezone = value
			case "AGENT_PORT":
				configuration.Config.Port = value

			/* MQTT settings for bi-directional communication */
			case "AGENT_MQTT_URI":
				configuration.Config.MQTTURI = value
			case "AGENT_MQTT_USERNAME":
				configuration.Config.MQTTUsername = value
			case "AGENT_MQTT_PASSWORD":
				configuration.Config.MQTTPassword = value

			/* ONVIF connection settings of the first camera */
			case "AGENT_CAMERA_HOST":
				if len(configuration.Config.Cameras) > 0 {
					configuration.Config.Cameras[0].Host = value
				}
			case "AGENT_CAMERA_PORT":
				port, err := strconv.Atoi(value)
				if err == nil && len(configuration.Config.Cameras) > 0 {
					configuration.Config.Cameras[0].Port = port
				}
			case "AGENT_CAMERA_USERNAME":
				if len(configuration.Config.Cameras) > 0 {
					configuration.Config.Cameras[0].Username = value
				}
			case "AGENT_CAMERA_PASSWORD":
				if len(configuration.Config.Cameras) > 0 {
					configuration.Config.Cameras[0].Password = value
				}
			case "AGENT_CAMERA_PROFILE":
				profile, err := strconv.Atoi(value)
				if err == nil && len(configuration.Config.Cameras) > 0 {
					configuration.Config.Cameras[0].ProfileIndex = profile
				}
			}
		}
	}
}

// SaveConfig persists a new configuration and signals the agent to restart
// with it.
func SaveConfig(configDirectory string, config models.Config, configuration *models.Configuration, communication *models.Communication) error {
	if !communication.IsConfiguring.IsSet() {
		communication.IsConfiguring.Set()

		err := StoreConfig(configDirectory, config)
		if err != nil {
			communication.IsConfiguring.UnSet()
			return err
		}

		select {
		case communication.HandleBootstrap <- "restart":
			log.Log.Info("config.main.SaveConfig(): update config, restart agent.")
		case <-time.After(1 * time.Second):
			log.Log.Info("config.main.SaveConfig(): update config, restart agent.")
		}

		communication.IsConfiguring.UnSet()

		return nil
	}
	return errors.New("already reconfiguring")
}

func StoreConfig(configDirectory string, config models.Config) error {
	res, _ := json.MarshalIndent(config, "", "\t")
	return os.WriteFile(configDirectory+"/data/config/config.json", res, 0644)
}
