package host

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordviz/args"
)

func post(t *testing.T, s *Server, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w.Result()
}

func get(t *testing.T, s *Server, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w.Result()
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func nextUpdate(t *testing.T, h *Hub) Update {
	t.Helper()
	select {
	case u := <-h.Updates():
		return u
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
		return Update{}
	}
}

func TestSubmitArgs(t *testing.T) {
	hub := NewHub("app", 5*time.Millisecond)
	s := NewServer(hub, ":0")

	resp := post(t, s, "/component/app/args", `{"rangeStart": "c3", "rangeEnd": "c5", "notes": [60, 64, 67]}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decodeBody[SubmitResponse](t, resp)
	assert.Equal(t, 1, body.Revision)
	assert.Equal(t, hub.Session(), body.Session)

	u := nextUpdate(t, hub)
	assert.Equal(t, 1, u.Revision)
	assert.Equal(t, []int{60, 64, 67}, u.Args.Notes)
	assert.Equal(t, "c3", u.Args.RangeStart)
}

func TestSubmitRejectsBadArgs(t *testing.T) {
	hub := NewHub("app", 5*time.Millisecond)
	s := NewServer(hub, ":0")

	cases := []string{
		`{"rangeStart": "zz9", "rangeEnd": "c5"}`,
		`{"rangeStart": "c3"}`,
		`{"rangeStart": "c3", "rangeEnd": "c5", "notes": ["e4"]}`,
		`{"version": 9}`,
		`not json`,
	}
	for _, body := range cases {
		resp := post(t, s, "/component/app/args", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		e := decodeBody[ErrorResponse](t, resp)
		assert.NotEmpty(t, e.Error, body)
	}
	_, rev := hub.Latest()
	assert.Equal(t, 0, rev)
}

func TestUnknownMount(t *testing.T) {
	s := NewServer(NewHub("app", 0), ":0")
	resp := post(t, s, "/component/other/args", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, s, "/component/other/frame")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBurstCollapsesToLatest(t *testing.T) {
	hub := NewHub("app", 20*time.Millisecond)
	for _, n := range []int{60, 62, 64} {
		hub.Submit(args.Args{Version: args.VersionArgs, Notes: []int{n}})
	}

	u := nextUpdate(t, hub)
	assert.Equal(t, 3, u.Revision)
	assert.Equal(t, []int{64}, u.Args.Notes)

	select {
	case extra := <-hub.Updates():
		t.Fatalf("unexpected second update %+v", extra)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestFrameReportsHeight(t *testing.T) {
	hub := NewHub("app", 0)
	s := NewServer(hub, ":0")

	hub.SetFrameHeight(0, 6)
	hub.SetFrameHeight(0, 7)

	resp := get(t, s, "/component/app/frame")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f := decodeBody[FrameInfo](t, resp)
	assert.Equal(t, 7, f.Height)
	assert.Equal(t, 2, f.Renders)
	assert.Equal(t, "app", f.Mount)
	assert.Equal(t, hub.Session(), f.Session)
}

func TestGetArgsAndHealth(t *testing.T) {
	hub := NewHub("app", 0)
	s := NewServer(hub, ":0")

	a := decodeBody[args.Args](t, get(t, s, "/component/app/args"))
	assert.Equal(t, args.Default(), a)

	resp := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(NewHub("app", 0), ":0")
	req := httptest.NewRequest(http.MethodOptions, "/component/app/args", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestClosedHubDropsDeliveries(t *testing.T) {
	hub := NewHub("app", 5*time.Millisecond)
	hub.Close()
	hub.Submit(args.Default())

	select {
	case u := <-hub.Updates():
		t.Fatalf("unexpected update %+v", u)
	case <-time.After(40 * time.Millisecond):
	}
}

func TestFrameTracksRenderedRevision(t *testing.T) {
	hub := NewHub("app", 5*time.Millisecond)
	hub.SetFrameHeight(0, 6)

	hub.Submit(args.Default())
	f := hub.Frame()
	assert.Equal(t, 1, f.Revision)
	assert.Equal(t, 0, f.Rendered, "height still belongs to the initial render")
	assert.Equal(t, 6, f.Height)

	u := nextUpdate(t, hub)
	hub.SetFrameHeight(u.Revision, 7)
	f = hub.Frame()
	assert.Equal(t, 1, f.Rendered)
	assert.Equal(t, 7, f.Height)
	assert.Equal(t, 2, f.Renders)
}

func TestSendToRunningServer(t *testing.T) {
	hub := NewHub("app", 5*time.Millisecond)
	srv := httptest.NewServer(NewServer(hub, "").Handler())
	defer srv.Close()

	a := args.Args{Version: args.VersionArgs, RangeStart: "c3", RangeEnd: "c6", Notes: []int{64, 69, 70, 74}}
	res, err := Send(context.Background(), srv.Client(), strings.TrimPrefix(srv.URL, "http://"), "app", a)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Revision)
	assert.Equal(t, hub.Session(), res.Session)
	assert.Equal(t, a, nextUpdate(t, hub).Args)

	_, err = Send(context.Background(), srv.Client(), srv.URL, "other", a)
	assert.ErrorIs(t, err, ErrRejected)

	_, err = Send(context.Background(), srv.Client(), srv.URL, "app", args.Args{Version: 9})
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "not supported")
}
