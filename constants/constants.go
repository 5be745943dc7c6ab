package constants

import (
	"github.com/hookscope/hookscope"
)

type Header struct {
	Name  string
	Value string
}

var (
	HeaderRequestId        = "X-Hookscope-Request-Id"
	DefaultResponseHeaders = []Header{
		{Name: "Server", Value: "Hookscope/" + hookscope.VERSION},
	}
	DefaultClientHeaders = []Header{
		{Name: "User-Agent", Value: "Hookscope/" + hookscope.VERSION},
	}
)

const (
	NoResponseHint     = "No response configured for this origin."
	RateLimitedMessage = "You are being ratelimited, Try again later."
)
