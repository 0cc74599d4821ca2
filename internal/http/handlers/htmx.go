package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
)

const (
	headerHXRequest = "HX-Request"
	headerHXTrigger = "HX-Trigger"
)

func isHX(c *echo.Context) bool {
	if c == nil || c.Request() == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(c.Request().Header.Get(headerHXRequest)), "true")
}

// hxTrigger asks htmx to dispatch the named events on the requesting element.
func hxTrigger(c *echo.Context, events ...string) {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		if ev = strings.TrimSpace(ev); ev != "" {
			names = append(names, ev)
		}
	}
	if c == nil || len(names) == 0 {
		return
	}
	c.Response().Header().Set(headerHXTrigger, strings.Join(names, ", "))
}

// addVary merges header names into Vary, deduplicated case-insensitively.
// A "*" anywhere wins.
func addVary(c *echo.Context, values ...string) {
	if c == nil || len(values) == 0 {
		return
	}
	header := c.Response().Header()

	tokens := varyTokens(header.Values(echo.HeaderVary))
	tokens = append(tokens, varyTokens(values)...)

	seen := make(map[string]struct{}, len(tokens))
	merged := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "*" {
			header.Set(echo.HeaderVary, "*")
			return
		}
		canonical := http.CanonicalHeaderKey(token)
		key := strings.ToLower(canonical)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, canonical)
	}
	if len(merged) > 0 {
		header.Set(echo.HeaderVary, strings.Join(merged, ", "))
	}
}

func varyTokens(lines []string) []string {
	var out []string
	for _, line := range lines {
		for _, token := range strings.Split(line, ",") {
			if token = strings.TrimSpace(token); token != "" {
				out = append(out, token)
			}
		}
	}
	return out
}
