package models

// OnvifCredentials are the connection settings used to verify a camera
// before it is added to the configuration.
type OnvifCredentials struct {
	Host     string `json:"host" binding:"required"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// CameraStatus is the per-camera view returned by the REST API. StreamURI
// carries the log-safe variant, credentials are never exposed.
type CameraStatus struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Host        string `json:"host"`
	Initialized bool   `json:"initialized"`
	PTZ         bool   `json:"ptz"`
	StreamURI   string `json:"stream_uri,omitempty"`
	ClockSkew   string `json:"clock_skew,omitempty"`
}
