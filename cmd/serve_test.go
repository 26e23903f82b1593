package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jsphweid/chartview/config"
	"github.com/jsphweid/chartview/model"
	"github.com/jsphweid/chartview/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fivePages = `{
	"page_list": [
		{"start_tick": 0, "end_tick": 960, "scan_line_direction": 1},
		{"start_tick": 960, "end_tick": 1920, "scan_line_direction": -1},
		{"start_tick": 1920, "end_tick": 2880, "scan_line_direction": 1},
		{"start_tick": 2880, "end_tick": 3840, "scan_line_direction": -1},
		{"start_tick": 3840, "end_tick": 4800, "scan_line_direction": 1}
	],
	"tempo_list": [{"tick": 0, "value": 500000}, {"tick": 2000, "value": 0}],
	"note_list": [
		{"page_index": 0, "type": 0, "id": 0, "tick": 0, "x": 0.5, "next_id": 0},
		{"page_index": 0, "type": 0, "id": 1, "tick": 500, "x": 0.5, "next_id": 0},
		{"page_index": 1, "type": 0, "id": 2, "tick": 960, "x": 0.5, "next_id": 0},
		{"page_index": 1, "type": 0, "id": 3, "tick": 1200, "x": 0.5, "next_id": 0}
	]
}`

func newTestRouter() (*session.Session, http.Handler) {
	sess := session.New(0)
	c := config.Default()
	c.MaxUploadBytes = 4096
	return sess, NewRouter(sess, c)
}

func do(t *testing.T, h http.Handler, req *http.Request) (*http.Response, []byte) {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decode[A any](t *testing.T, body []byte) A {
	var v A
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func upload(t *testing.T, h http.Handler, doc string) (*http.Response, []byte) {
	req := httptest.NewRequest(http.MethodPost, "/api/chart", strings.NewReader(doc))
	return do(t, h, req)
}

func TestIndexPage(t *testing.T) {
	_, h := newTestRouter()
	resp, body := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)
	assert.Contains(resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(string(body), `accept=".txt,.json"`)
}

func TestGetPageOnDefaultChart(t *testing.T) {
	_, h := newTestRouter()
	resp, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/page", nil))
	require.Equal(t, 200, resp.StatusCode)

	view := decode[model.PageView](t, body)
	assert := assert.New(t)
	assert.Equal(0, view.PageIndex)
	assert.Equal(1, view.PageCount)
	assert.Len(view.Notes, 1)
	assert.Len(view.Tempos, 1)
}

func TestLoadChartRawBody(t *testing.T) {
	sess, h := newTestRouter()

	resp, body := upload(t, h, fivePages)
	require.Equal(t, 200, resp.StatusCode, string(body))

	sum := decode[model.ChartSummary](t, body)
	assert := assert.New(t)
	assert.Equal(5, sum.PageCount)
	assert.Equal(4, sum.NoteCount)
	assert.Equal(2, sum.TempoCount)
	assert.Equal(0, sum.PageIndex)
	assert.Equal(sess.Snapshot().ID.String(), sum.ID)
}

func TestLoadChartMultipart(t *testing.T) {
	_, h := newTestRouter()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile("file", "song.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(fivePages))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/chart", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, body := do(t, h, req)
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.Equal(t, 5, decode[model.ChartSummary](t, body).PageCount)
}

func TestLoadChartMultipartErrors(t *testing.T) {
	cases := map[string]func(mw *multipart.Writer){
		"missing field": func(mw *multipart.Writer) {
			mw.WriteField("other", "x")
		},
		"wrong extension": func(mw *multipart.Writer) {
			fw, _ := mw.CreateFormFile("file", "song.mid")
			fw.Write([]byte(fivePages))
		},
	}

	for name, fill := range cases {
		t.Run(name, func(t *testing.T) {
			_, h := newTestRouter()
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fill(mw)
			mw.Close()

			req := httptest.NewRequest(http.MethodPost, "/api/chart", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			resp, body := do(t, h, req)
			assert.Equal(t, 400, resp.StatusCode)
			assert.NotEmpty(t, decode[model.ErrorResponse](t, body).Error)
		})
	}
}

func TestLoadChartInvalidJSONKeepsState(t *testing.T) {
	sess, h := newTestRouter()
	before := sess.Snapshot()

	resp, body := upload(t, h, `{"page_list": [`)

	assert := assert.New(t)
	assert.Equal(400, resp.StatusCode)
	assert.Contains(decode[model.ErrorResponse](t, body).Error, "could not decode chart")
	assert.Equal(before, sess.Snapshot())
}

func TestLoadChartTooLarge(t *testing.T) {
	_, h := newTestRouter()
	resp, _ := upload(t, h, `{"note_list": [`+strings.Repeat(" ", 5000)+`]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestStepPage(t *testing.T) {
	_, h := newTestRouter()
	resp, _ := upload(t, h, fivePages)
	require.Equal(t, 200, resp.StatusCode)

	step := func(delta string) model.PageView {
		resp, body := do(t, h, httptest.NewRequest(http.MethodPost, "/api/page/step/"+delta, nil))
		require.Equal(t, 200, resp.StatusCode, string(body))
		return decode[model.PageView](t, body)
	}

	assert := assert.New(t)
	assert.Equal(0, step("-10").PageIndex)
	assert.Equal(4, step("10").PageIndex)

	view := step("-3")
	assert.Equal(1, view.PageIndex)
	if assert.Len(view.Notes, 2) {
		assert.Equal(960, view.Notes[0].Tick)
		assert.Equal(1200, view.Notes[1].Tick)
	}
	assert.Empty(view.Tempos)

	view = step("1")
	if assert.Len(view.Tempos, 1) {
		assert.Equal(2000, view.Tempos[0].Tick)
		assert.Nil(view.Tempos[0].BPM)
	}
}

func TestSetPage(t *testing.T) {
	sess, h := newTestRouter()
	upload(t, h, fivePages)

	resp, body := do(t, h, httptest.NewRequest(http.MethodPut, "/api/page/3", nil))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, decode[model.PageView](t, body).PageIndex)

	resp, body = do(t, h, httptest.NewRequest(http.MethodPut, "/api/page/30", nil))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 4, decode[model.PageView](t, body).PageIndex)
	assert.Equal(t, 4, sess.Snapshot().PageIndex)
}

func TestBadPageVars(t *testing.T) {
	_, h := newTestRouter()

	resp, _ := do(t, h, httptest.NewRequest(http.MethodPut, "/api/page/-1", nil))
	assert.Equal(t, 404, resp.StatusCode)

	resp, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/pages/99999999999999999999999", nil))
	assert.Equal(t, 400, resp.StatusCode)
}

func TestViewPageDoesNotMoveSession(t *testing.T) {
	sess, h := newTestRouter()
	upload(t, h, fivePages)

	resp, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/pages/1", nil))
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode[model.PageView](t, body).Notes, 2)
	assert.Equal(t, 0, sess.Snapshot().PageIndex)

	resp, body = do(t, h, httptest.NewRequest(http.MethodGet, "/api/pages/7", nil))
	require.Equal(t, 200, resp.StatusCode)
	view := decode[model.PageView](t, body)
	assert.Nil(t, view.Page)
	assert.Empty(t, view.Notes)
	assert.Empty(t, view.Tempos)
}

func TestCORS(t *testing.T) {
	_, h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/chart", nil)
	req.Header.Set("Origin", "http://example.test")
	resp, _ := do(t, h, req)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEvents(t *testing.T) {
	sess, h := newTestRouter()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan model.RedrawEvent)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev model.RedrawEvent
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev) == nil {
				events <- ev
			}
		}
		close(events)
	}()

	first := <-events
	assert.Equal(t, sess.Snapshot().ID.String(), first.ID)

	snap, err := sess.LoadFile(strings.NewReader(fivePages))
	require.NoError(t, err)
	loaded := <-events
	assert.Equal(t, snap.ID.String(), loaded.ID)

	sess.ChangePage(2)
	moved := <-events
	assert.Equal(t, 2, moved.PageIndex)
}
