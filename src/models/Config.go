package models

// Config is the highlevel struct which contains all the configuration of
// the agent: the identity of the agent itself, the MQTT broker it listens
// on and the set of ONVIF cameras it drives.
type Config struct {
	Type     string   `json:"type" binding:"required"`
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Timezone string   `json:"timezone,omitempty"`
	Port     string   `json:"port,omitempty"`
	Cameras  []Camera `json:"cameras"`

	MQTTURI      string `json:"mqtturi,omitempty"`
	MQTTUsername string `json:"mqtt_username,omitempty"`
	MQTTPassword string `json:"mqtt_password,omitempty"`
}

// Camera holds the ONVIF connection settings of a single IP camera. Zero
// values for Port, Username, Password, PTZSpeed and PTZStep are filled in
// by the config package before a session is created.
type Camera struct {
	Key          string     `json:"key"`
	Name         string     `json:"name"`
	Host         string     `json:"host"`
	Port         int        `json:"port,omitempty"`
	Username     string     `json:"username,omitempty"`
	Password     string     `json:"password,omitempty"`
	ProfileIndex int        `json:"profile,omitempty"`
	PTZSpeed     AxisValues `json:"ptz_speed,omitempty"`
	PTZStep      AxisValues `json:"ptz_step,omitempty"`
}

// Configuration wraps the merged view of the global and custom configs.
type Configuration struct {
	Name         string `json:"name"`
	Port         string `json:"port"`
	Config       Config `json:"config"`
	CustomConfig Config `json:"custom_config"`
	GlobalConfig Config `json:"global_config"`
}
