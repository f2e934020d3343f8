// Utilities for parsing cURL commands copied from browser DevTools.
package shared

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlURLRegex    = regexp.MustCompile(`'(https?://[^']+)'|"(https?://[^"]+)"|\s(https?://\S+)`)
)

// CurlRequest represents the target, headers and cookies parsed from a cURL command.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts the request.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts the URL, headers and cookie.
//
// A -b/--cookie flag takes precedence over a Cookie header.
func ParseCurlCommand(curlCmd string) (*CurlRequest, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var headerCookie string

	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		headers[key] = value
	}

	cookie := headerCookie
	if m := curlCookieRegex.FindStringSubmatch(curlCmd); m != nil {
		cookie = firstGroup(m)
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	var target string
	bare := curlCookieRegex.ReplaceAllString(curlHeaderRegex.ReplaceAllString(curlCmd, ""), "")
	if m := curlURLRegex.FindStringSubmatch(bare); m != nil {
		target = firstGroup(m)
	}

	return &CurlRequest{URL: target, Headers: headers, Cookie: cookie}, nil
}

// Cookies parses the raw cookie string into [http.Cookie] values.
func (c *CurlRequest) Cookies() ([]*http.Cookie, error) {
	if c.Cookie == "" {
		return nil, nil
	}
	cookies, err := http.ParseCookie(c.Cookie)
	if err != nil {
		return nil, fmt.Errorf("%w: cookie header: %v", ErrInvalidInput, err)
	}
	return cookies, nil
}

// Origin returns the scheme and host of the parsed URL, e.g. "https://api.example.com".
func (c *CurlRequest) Origin() string {
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
