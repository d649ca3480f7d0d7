package apiclient

import (
	"fmt"
	"net/url"
)

// ============================================================================
// Generic API Client Helpers
// ============================================================================
//
// These helpers reduce repetitive HTTP boilerplate across API client resource
// files. They are unexported (package-internal).

// getResource performs a GET request to the given path and decodes the response
// body into a value of type T. Returns a pointer to the decoded value.
//
// Example:
//
//	info, err := getResource[HandleInfo](c, "/api/v1/handles/3")
func getResource[T any](c *Client, path string) (*T, error) {
	var result T
	if err := c.get(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// postResource performs a POST request to the given path with the provided body
// and decodes the response into a value of type T.
//
// Example:
//
//	opened, err := postResource[openResponse](c, "/api/v1/files/open", req)
func postResource[T any](c *Client, path string, body any) (*T, error) {
	var result T
	if err := c.post(path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// resourcePath builds a resource path by formatting a path template with the given
// arguments using fmt.Sprintf.
//
// Example:
//
//	path := resourcePath("/api/v1/handles/%d/close", 3)
func resourcePath(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// withQuery appends query parameters to path.
func withQuery(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}
