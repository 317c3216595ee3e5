package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteTimeoutOutlastsRequestTimeout(t *testing.T) {
	srv := newHTTPServer(5050, http.NotFoundHandler())
	assert.Equal(t, ":5050", srv.Addr)
	assert.Greater(t, srv.WriteTimeout, requestTimeout)
	assert.Greater(t, srv.ReadTimeout, srv.ReadHeaderTimeout)
}
