package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type (
	ContextKey        string
	missingFieldError string
)

const (
	BookIDPrefix            string     = "b"
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
)

var errEmptyRequestBody = errors.New("invalid book request body")

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

// BookRequest is the json payload to create or update a book. Pointers
// allow to differentiate a missing field from its zero value.
type BookRequest struct {
	Name     *string `json:"name"`
	Author   *string `json:"author"`
	Language *string `json:"language"`
	Pages    *int32  `json:"pages"`
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val := ctx.Value(RequestNumberContextKey); val != nil {
		return val.(uint64)
	}
	return 0
}

// DecodeBookRequestBody reads the json content of a book creation or update request.
// All four fields must be present. Their values are not checked.
func DecodeBookRequestBody(r *http.Request) (BookFields, error) {
	var fields BookFields
	if r.Body == nil {
		return fields, errEmptyRequestBody
	}
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fields, err
	}

	switch {
	case req.Name == nil:
		return fields, missingFieldError("name")
	case req.Author == nil:
		return fields, missingFieldError("author")
	case req.Language == nil:
		return fields, missingFieldError("language")
	case req.Pages == nil:
		return fields, missingFieldError("pages")
	}

	fields = BookFields{
		Name:     *req.Name,
		Author:   *req.Author,
		Language: *req.Language,
		Pages:    *req.Pages,
	}
	return fields, nil
}

// DecodeBookForm reads the url-encoded form of a book creation or edition page.
func DecodeBookForm(r *http.Request) (BookFields, error) {
	var fields BookFields
	if err := r.ParseForm(); err != nil {
		return fields, err
	}

	values := make(map[string]string, 4)
	for _, key := range []string{"name", "author", "language", "pages"} {
		v, ok := r.PostForm[key]
		if !ok || len(v) == 0 {
			return fields, missingFieldError(key)
		}
		values[key] = v[0]
	}

	pages, err := strconv.ParseInt(strings.TrimSpace(values["pages"]), 10, 32)
	if err != nil {
		return fields, fmt.Errorf("invalid pages value: %w", err)
	}

	fields = BookFields{
		Name:     values["name"],
		Author:   values["author"],
		Language: values["language"],
		Pages:    int32(pages),
	}
	return fields, nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
