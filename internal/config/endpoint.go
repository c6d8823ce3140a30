package config

import (
	"net"
	"os"
	"strings"
)

// DefaultProxyPort is the port the chat proxy listens on unless PORT says otherwise.
const DefaultProxyPort = "4000"

// Source yields one candidate proxy base URL. An empty result means "not set".
type Source struct {
	Name   string
	Lookup func() string
}

// Static wraps a fixed value, typically a command line flag.
func Static(name, value string) Source {
	return Source{Name: name, Lookup: func() string { return value }}
}

// Env reads an environment variable.
func Env(key string) Source {
	return Source{Name: key, Lookup: func() string { return os.Getenv(key) }}
}

// DevHost turns a development host such as "192.168.0.12:19000" into the
// proxy URL on the same machine.
func DevHost(key string) Source {
	return Source{Name: key, Lookup: func() string {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return ""
		}
		host := raw
		if h, _, err := net.SplitHostPort(raw); err == nil {
			host = h
		}
		return "http://" + net.JoinHostPort(host, DefaultProxyPort)
	}}
}

// DefaultAPISources is the resolution chain for the proxy base URL, in order:
// explicit flag, DIARY_API_BASE, EXPO_PUBLIC_API_BASE, DIARY_DEV_HOST, localhost.
func DefaultAPISources(flagValue string) []Source {
	return []Source{
		Static("flag", flagValue),
		Env("DIARY_API_BASE"),
		Env("EXPO_PUBLIC_API_BASE"),
		DevHost("DIARY_DEV_HOST"),
		Static("default", "http://localhost:"+DefaultProxyPort),
	}
}

// ResolveBaseURL returns the first non-empty source value with any trailing
// slash removed, along with the name of the source that supplied it.
func ResolveBaseURL(sources ...Source) (string, string) {
	for _, src := range sources {
		if src.Lookup == nil {
			continue
		}
		if value := strings.TrimSpace(src.Lookup()); value != "" {
			return strings.TrimRight(value, "/"), src.Name
		}
	}
	return "", ""
}
