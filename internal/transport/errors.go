package transport

import (
	"fmt"
	"strings"
)

// SnippetLength bounds the raw-body excerpt carried by NonJSONResponseError.
const SnippetLength = 100

// NonJSONResponseError reports a body that could not be parsed as JSON, such as
// an HTML error page from a proxy.
type NonJSONResponseError struct {
	Status  int
	Snippet string
}

func (e *NonJSONResponseError) Error() string {
	return fmt.Sprintf("server returned non-JSON response: %s...", e.Snippet)
}

// StatusError reports a parseable JSON body that came with a non-2xx status.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Detail) != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned HTTP %d", e.Status)
}

func snippet(body string) string {
	runes := []rune(body)
	if len(runes) <= SnippetLength {
		return body
	}
	return string(runes[:SnippetLength])
}
