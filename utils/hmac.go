package utils

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

var (
	ErrUnsupportedHashMethod     = errors.New("unsupported hash method")
	ErrUnsupportedEncodingMethod = errors.New("unsupported encoding method")
)

var (
	factories = map[string]func() hash.Hash{
		"md5":     md5.New,
		"sha-1":   sha1.New,
		"sha-256": sha256.New,
		"sha-512": sha512.New,
	}
)

// Hmac accepts algorithm names case-insensitively ("SHA-256", "sha-256").
func Hmac(algorithm string, key []byte, data []byte) ([]byte, error) {
	fn, exist := factories[strings.ToLower(algorithm)]
	if !exist {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHashMethod, algorithm)
	}
	h := hmac.New(fn, key)
	h.Write(data)
	return h.Sum(nil), nil
}

func Encode(encoding string, b []byte) (string, error) {
	switch encoding {
	case "hex":
		return hex.EncodeToString(b), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(b), nil
	case "base64url":
		return base64.RawURLEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncodingMethod, encoding)
	}
}

func DigestEqual(a string, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
