package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/app/chat"
	"roomrelay/internal/configs"
	"roomrelay/internal/pkg/auth/jwt"
	"roomrelay/internal/pkg/errs"
)

const waitFor = 2 * time.Second

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sessionData struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func newTestServer(t *testing.T) (*httptest.Server, *AppDeps) {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:     "development",
		Port:            8080,
		RoomIdleTimeout: time.Minute,
		JWTSecret:       "test-secret",
	}
	deps := &AppDeps{
		Manager: chat.NewManager(cfg, nil),
		Config:  cfg,
	}

	router, stop := Router(deps)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		deps.Manager.Shutdown()
		server.Close()
		stop()
	})

	return server, deps
}

func postJSON(t *testing.T, server *httptest.Server, path, body string) (*http.Response, apiResponse) {
	t.Helper()

	res, err := http.Post(server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var decoded apiResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&decoded))

	return res, decoded
}

func getJSON(t *testing.T, server *httptest.Server, path string, cookie *http.Cookie) (*http.Response, apiResponse) {
	t.Helper()

	request, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		request.AddCookie(cookie)
	}

	res, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer res.Body.Close()

	var decoded apiResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&decoded))

	return res, decoded
}

func identityCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range res.Cookies() {
		if c.Name == jwt.IdentityCookieName {
			return c
		}
	}
	t.Fatalf("response carried no %s cookie", jwt.IdentityCookieName)
	return nil
}

func session(t *testing.T, body apiResponse) sessionData {
	t.Helper()

	var data sessionData
	require.NoError(t, json.Unmarshal(body.Data, &data))
	return data
}

func dial(server *httptest.Server, token string, cookie *http.Cookie) (*websocket.Conn, *http.Response, error) {
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + token

	header := http.Header{}
	if cookie != nil {
		header.Set("Cookie", cookie.Name+"="+cookie.Value)
	}

	return websocket.DefaultDialer.Dial(wsURL, header)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))

	var env chat.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestRelay_TwoParticipantConversation(t *testing.T) {
	req := require.New(t)
	server, deps := newTestServer(t)

	// Given: alice creates a room and connects.
	res, body := postJSON(t, server, "/api/create", `{"username":"alice"}`)
	req.Equal(http.StatusOK, res.StatusCode)
	aliceCookie := identityCookie(t, res)
	token := session(t, body).Token
	req.Len(token, 5)

	alice, _, err := dial(server, token, aliceCookie)
	req.NoError(err)
	defer alice.Close()
	req.Equal(chat.Envelope{Sender: "alice", Message: "got connected"}, readEnvelope(t, alice))

	// When: bob joins the same room.
	res, body = postJSON(t, server, "/api/join", `{"username":"bob","token":"`+token+`"}`)
	req.Equal(http.StatusOK, res.StatusCode)
	req.Equal(token, session(t, body).Token)
	bobCookie := identityCookie(t, res)

	bob, _, err := dial(server, token, bobCookie)
	req.NoError(err)

	// Then: both see bob's join.
	req.Equal(chat.Envelope{Sender: "bob", Message: "got connected"}, readEnvelope(t, bob))
	req.Equal(chat.Envelope{Sender: "bob", Message: "got connected"}, readEnvelope(t, alice))

	// When: alice sends a line claiming to be someone else.
	req.NoError(alice.WriteJSON(map[string]string{"message": "hi", "sender": "mallory"}))

	// Then: both receive it stamped with alice's name.
	req.Equal(chat.Envelope{Sender: "alice", Message: "hi"}, readEnvelope(t, alice))
	req.Equal(chat.Envelope{Sender: "alice", Message: "hi"}, readEnvelope(t, bob))

	_, body = getJSON(t, server, "/"+token, nil)
	req.JSONEq(`{"token":"`+token+`","participants":2}`, string(body.Data))

	// When: bob disconnects.
	req.NoError(bob.Close())

	// Then: alice is told, once.
	req.Equal(chat.Envelope{Sender: "bob", Message: "left"}, readEnvelope(t, alice))

	// When: alice disconnects, the room disappears.
	req.NoError(alice.Close())
	req.Eventually(func() bool {
		return deps.Manager.GetRoom(token) == nil
	}, waitFor, 10*time.Millisecond)

	res, body = getJSON(t, server, "/"+token, nil)
	req.Equal(http.StatusNotFound, res.StatusCode)
	req.Equal(errs.ErrRoomNotFound, body.Code)
}

func TestWebSocket_UnknownTokenRejectedBeforeUpgrade(t *testing.T) {
	req := require.New(t)
	server, deps := newTestServer(t)

	res, _ := postJSON(t, server, "/api/create", `{"username":"alice"}`)
	cookie := identityCookie(t, res)
	roomsBefore := deps.Manager.Count()

	conn, wsRes, err := dial(server, "ZZZZZ", cookie)

	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Nil(conn)
	req.Equal(http.StatusNotFound, wsRes.StatusCode)
	req.Equal(roomsBefore, deps.Manager.Count())
}

func TestWebSocket_MissingIdentityRejected(t *testing.T) {
	req := require.New(t)
	server, deps := newTestServer(t)

	_, body := postJSON(t, server, "/api/create", `{"username":"alice"}`)
	token := session(t, body).Token

	conn, wsRes, err := dial(server, token, nil)

	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Nil(conn)
	req.Equal(http.StatusUnauthorized, wsRes.StatusCode)

	room := deps.Manager.GetRoom(token)
	req.NotNil(room)
	req.Equal(0, room.Size())
}

func TestJoin_UnknownTokenIsNotFound(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	res, body := postJSON(t, server, "/api/join", `{"username":"bob","token":"AbC12"}`)

	req.Equal(http.StatusNotFound, res.StatusCode)
	req.Equal(errs.ErrRoomNotFound, body.Code)
	req.Empty(res.Cookies())
}

func TestJoin_WithoutTokenCreatesRoom(t *testing.T) {
	req := require.New(t)
	server, deps := newTestServer(t)

	res, body := postJSON(t, server, "/api/join", `{"username":"carol"}`)

	req.Equal(http.StatusOK, res.StatusCode)
	data := session(t, body)
	req.Equal("carol", data.Username)
	req.NotNil(deps.Manager.GetRoom(data.Token))
}

func TestCreate_RejectsInvalidUsername(t *testing.T) {
	req := require.New(t)
	server, deps := newTestServer(t)

	res, body := postJSON(t, server, "/api/create", `{"username":"   "}`)

	req.Equal(http.StatusBadRequest, res.StatusCode)
	req.Equal(errs.ErrInvalidUsername, body.Code)
	req.Equal(0, deps.Manager.Count())
}

func TestCreate_AcceptsFormPost(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	res, err := http.PostForm(server.URL+"/api/create", url.Values{"name": {"dave"}})
	req.NoError(err)
	defer res.Body.Close()

	var body apiResponse
	req.NoError(json.NewDecoder(res.Body).Decode(&body))
	req.Equal(http.StatusOK, res.StatusCode)
	req.Equal("dave", session(t, body).Username)
}

func TestMe_ReportsCookieIdentity(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	_, body := getJSON(t, server, "/api/me", nil)
	req.JSONEq(`{"username":""}`, string(body.Data))

	res, _ := postJSON(t, server, "/api/create", `{"username":"erin"}`)
	_, body = getJSON(t, server, "/api/me", identityCookie(t, res))
	req.JSONEq(`{"username":"erin"}`, string(body.Data))
}

func TestHealth_ReportsRoomCount(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	postJSON(t, server, "/api/create", `{"username":"alice"}`)

	res, body := getJSON(t, server, "/health", nil)
	req.Equal(http.StatusOK, res.StatusCode)
	req.JSONEq(`{"status":"ok","service":"Room Relay","rooms":1}`, string(body.Data))
}

func TestJoin_WithoutTokenSharesCreateRateLimit(t *testing.T) {
	req := require.New(t)
	server, deps := newTestServer(t)

	// Given: the create burst is used up.
	for range CreateBurst {
		res, _ := postJSON(t, server, "/api/create", `{"username":"alice"}`)
		req.Equal(http.StatusOK, res.StatusCode)
	}

	// When: the same client tries to create a room through join.
	res, body := postJSON(t, server, "/api/join", `{"username":"alice"}`)

	// Then: it is throttled and no room is allocated.
	req.Equal(http.StatusTooManyRequests, res.StatusCode)
	req.Equal(errs.ErrRateLimitExceeded, body.Code)
	req.Equal(CreateBurst, deps.Manager.Count())
}

func TestJoin_ExistingRoomIsNotCreateLimited(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	_, body := postJSON(t, server, "/api/create", `{"username":"alice"}`)
	token := session(t, body).Token
	postJSON(t, server, "/api/create", `{"username":"alice"}`)

	for _, name := range []string{"bob", "carol", "dave"} {
		res, _ := postJSON(t, server, "/api/join", `{"username":"`+name+`","token":"`+token+`"}`)
		req.Equal(http.StatusOK, res.StatusCode)
	}
}
