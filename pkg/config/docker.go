package config

import (
	"net"
	"net/url"
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the application is running inside a Docker container.
// Detection is based on the presence of /.dockerenv. The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveEndpointForDocker rewrites a loopback enrichment endpoint (e.g. a local model
// server) so it stays reachable from inside a container.
func ResolveEndpointForDocker(endpoint string) string {
	if endpoint == "" || !IsRunningInDocker() {
		return endpoint
	}
	return rewriteEndpointHost(endpoint, dockerHost)
}

func dockerHost(host string) string {
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}

func rewriteEndpointHost(endpoint string, mapHost func(string) string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	host, port := u.Hostname(), u.Port()
	mapped := mapHost(host)
	if mapped == host {
		return endpoint
	}
	if port != "" {
		u.Host = net.JoinHostPort(mapped, port)
	} else {
		u.Host = mapped
	}
	return u.String()
}
