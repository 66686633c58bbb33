package redrain

import (
	"net/url"
	"strings"
)

// FileConfig describes the file backing the dead-letter storage.
type FileConfig struct {
	path    string
	durable bool
}

// File creates a dead-letter storage file configuration for the provided
// path. Use ":memory:" for a non-persistent in-memory storage.
func File(file string) *FileConfig {
	return &FileConfig{path: strings.TrimSpace(file)}
}

// Durable makes the storage fsync every write. Slower, but a power loss can't
// lose an already stored dead letter.
func (c *FileConfig) Durable(durable bool) *FileConfig {
	c.durable = durable
	return c
}

func (c *FileConfig) uri() string {
	if c == nil {
		return ":memory:"
	}

	query := url.Values{}
	if c.durable {
		query.Set("_sync", "full")
	}

	uri, err := url.Parse(c.path)
	if err != nil {
		if encoded := query.Encode(); encoded != "" {
			return c.path + "?" + encoded
		}
		return c.path
	}

	uri.RawQuery = query.Encode()

	return uri.String()
}
