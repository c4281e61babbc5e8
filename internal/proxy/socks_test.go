package proxy

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDirect(t *testing.T) {
	c, err := NewClient("", 0)
	require.NoError(t, err)
	assert.Nil(t, c.Transport)
	assert.Equal(t, DefaultTimeout, c.Timeout)
}

func TestNewClientSocks(t *testing.T) {
	c, err := NewClient("127.0.0.1:1080", 5*time.Second)
	require.NoError(t, err)
	assert.IsType(t, &http.Transport{}, c.Transport)
	assert.Equal(t, 5*time.Second, c.Timeout)
}

func TestNewClientSocksUnreachable(t *testing.T) {
	// port 1 refuses, so any request fails in the dialer
	c, err := NewClient("127.0.0.1:1", time.Second)
	require.NoError(t, err)

	_, err = c.Get("http://example.invalid/")
	assert.Error(t, err)
}
