package instance

import (
	"os"

	"github.com/angelmondragon/gymhub-backend/pkg/env"
)

// GetID identifies the running process in logs: the platform dyno name when
// present, then WORKER_ID, then the hostname.
func GetID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return env.First(host, "DYNO", "WORKER_ID")
}
