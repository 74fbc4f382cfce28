package log

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestCameraScopeAddsStructuredFields(t *testing.T) {
	logger := Logging{}
	logger.Init("debug", "", ".", time.UTC)

	var buffer bytes.Buffer
	logrus.SetOutput(&buffer)
	defer logrus.SetOutput(os.Stdout)

	logger.Camera("garden", "192.168.1.10:5000").Info("connected")

	var entry map[string]interface{}
	if err := json.Unmarshal(buffer.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %s", buffer.String(), err)
	}
	if entry["camera"] != "garden" {
		t.Errorf("expected the camera field, got %v", entry)
	}
	if entry["host"] != "192.168.1.10:5000" {
		t.Errorf("expected the host field, got %v", entry)
	}
	if entry["msg"] != "connected" {
		t.Errorf("expected the message, got %v", entry)
	}
}

func TestInitFallsBackToInfoLevel(t *testing.T) {
	logger := Logging{}
	logger.Init("chatty", "", ".", time.UTC)

	if logrus.GetLevel() != logrus.InfoLevel {
		t.Errorf("an unknown level should fall back to info, got %s", logrus.GetLevel())
	}
}

func TestInitSelectsConsoleBackend(t *testing.T) {
	logger := Logging{}
	logger.Init("info", "console", t.TempDir(), time.UTC)

	if logger.Logger != "console" {
		t.Errorf("expected the console backend, got %s", logger.Logger)
	}
	// The scope must route to the console backend without touching logrus.
	var buffer bytes.Buffer
	logrus.SetOutput(&buffer)
	defer logrus.SetOutput(os.Stdout)
	logger.Camera("garden", "192.168.1.10:5000").Info("connected")
	if buffer.Len() != 0 {
		t.Errorf("expected nothing on the JSON backend, got %q", buffer.String())
	}
}
