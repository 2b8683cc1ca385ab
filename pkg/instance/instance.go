package instance

import (
	"os"

	"github.com/angelmondragon/orderhub-backend/pkg/env"
)

// ID identifies this process in logs and lock ownership. It prefers
// ORDERHUB_INSTANCE_ID, then the Cloud Run revision, then the host name,
// then "<service>-0".
func ID(service string) string {
	if id := env.First("ORDERHUB_INSTANCE_ID", "K_REVISION"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	if service == "" {
		service = "orderhub"
	}
	return service + "-0"
}
