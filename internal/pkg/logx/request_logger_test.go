package logx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	req := require.New(t)

	req.Equal("203.0.113.0", anonymizeIP("203.0.113.42:5123"))
	req.Equal("127.0.0.1", anonymizeIP("127.0.0.1:8080"))
	req.Equal("127.0.0.1", anonymizeIP("[::1]:8080"))
	req.Equal("2001:db8:1:2::", anonymizeIP("[2001:db8:1:2:3:4:5:6]:443"))
	req.Equal("unknown_ip", anonymizeIP("not-an-ip"))
}

func TestLevelFor(t *testing.T) {
	req := require.New(t)

	req.Equal(zerolog.InfoLevel, levelFor(http.StatusOK))
	req.Equal(zerolog.InfoLevel, levelFor(http.StatusSwitchingProtocols))
	req.Equal(zerolog.WarnLevel, levelFor(http.StatusNotFound))
	req.Equal(zerolog.ErrorLevel, levelFor(http.StatusServiceUnavailable))
}

func TestRequestLogger_WritesAccessLine(t *testing.T) {
	req := require.New(t)
	buf := captureLogs(t, zerolog.InfoLevel)

	handler := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	r := httptest.NewRequest(http.MethodGet, "/AbC12", nil)
	r.RemoteAddr = "203.0.113.42:5123"
	handler.ServeHTTP(httptest.NewRecorder(), r)

	entry := lastLine(t, buf)
	req.Equal("warn", entry["level"])
	req.EqualValues(http.StatusNotFound, entry["status"])
	req.Equal("203.0.113.0", entry["remote_ip"])
	req.Equal(false, entry["websocket"])
}
