package http

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseDefaults(t *testing.T) {
	resp := NewResponse()

	assert.Equal(t, 200, resp.Status())
	assert.False(t, resp.HasStatus())
	assert.Equal(t, DefaultContentType, resp.ContentType())
	assert.Empty(t, resp.Body)

	resp.SetStatus(404)
	assert.Equal(t, 404, resp.Status())
	assert.True(t, resp.HasStatus())
}

func TestResponseWriteTo(t *testing.T) {
	resp := NewResponse()
	resp.SetStatus(403)
	resp.Headers.Set("X-Powered-By", "X")
	resp.Body = "Unauthorized"

	var buf bytes.Buffer
	n, err := resp.WriteTo(&buf)
	require.NoError(t, err)

	want := "HTTP/1.1 403\r\n" +
		"content-type: text/html\r\n" +
		"x-powered-by: X\r\n" +
		"content-length: 12\r\n" +
		"\r\n" +
		"Unauthorized"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, int64(len(want)), n)
}

func TestResponseWriteToLargeBody(t *testing.T) {
	resp := NewResponse()
	resp.Body = strings.Repeat("x", 100_000)

	var buf bytes.Buffer
	_, err := resp.WriteTo(&buf)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(buf.String(), "\r\n\r\n"+resp.Body))
	assert.Contains(t, buf.String(), "content-length: 100000\r\n")
}

func TestHTTPError(t *testing.T) {
	err := NewHTTPError("Unauthorized", 403).WithHeader("WWW-Authenticate", "Basic")

	assert.Equal(t, "403 Unauthorized", err.Error())
	assert.Equal(t, "Basic", err.Headers.Get("www-authenticate"))
}
