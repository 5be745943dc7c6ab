package utils

import (
	"fmt"
	"net"
	"reflect"
	"time"

	uuid "github.com/satori/go.uuid"
)

// UUID returns a random v4 identifier. Request ids and log entry ids use it.
func UUID() string {
	return uuid.NewV4().String()
}

func DurationS(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}

func DefaultIfZero[T any](v T, fallback T) T {
	if reflect.ValueOf(v).IsZero() {
		return fallback
	}
	return v
}

// ListenAddrToURL renders a listen address as a URL a local client can dial.
func ListenAddrToURL(tls bool, listen string) string {
	scheme := "http"
	if tls {
		scheme = "https"
	}

	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return fmt.Sprintf("%s://%s", scheme, listen)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, port))
}
