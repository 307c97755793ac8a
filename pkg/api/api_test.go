package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"voice-insight/pkg/audio/audiotest"
	"voice-insight/pkg/classifier"
	"voice-insight/pkg/config"
	"voice-insight/pkg/logger"
	"voice-insight/pkg/metrics"
	"voice-insight/pkg/models"
	"voice-insight/pkg/pipeline"
	"voice-insight/pkg/storage"

	. "github.com/smartystreets/goconvey/convey"
)

var chartURL = regexp.MustCompile(`/static/graphs/[^"]+\.png`)

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	cfg := config.New()
	root := t.TempDir()
	cfg.Storage.UploadDir = filepath.Join(root, "audio")
	cfg.Storage.GraphDir = filepath.Join(root, "static", "graphs")
	cfg.Storage.Path = ""

	log := logger.New(io.Discard)
	mm := metrics.NewManager()
	p := pipeline.NewManager(cfg, storage.NewMemoryStore(), classifier.NewRandomClassifier(rand.NewSource(3)), log,
		pipeline.WithMetrics(mm))
	return NewRouter(cfg, NewHandlers(p, log), mm, log), cfg
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(data)
	} else {
		w.WriteField("note", "no audio here")
	}
	w.Close()
	return &body, w.FormDataContentType()
}

func postClip(t *testing.T, h http.Handler, field, filename string, data []byte) *httptest.ResponseRecorder {
	body, contentType := multipartBody(t, field, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	Convey("Given the service router", t, func() {
		h, cfg := newTestRouter(t)
		wav := audiotest.EncodeWAV(t, audiotest.Tone(440, 4, 16000), 16000, 1)

		Convey("GET renders the empty form", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `name="file"`)
			So(chartURL.FindAllString(rec.Body.String(), -1), ShouldBeEmpty)
			So(rec.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
		})

		Convey("POST without a file renders empty results", func() {
			rec := postClip(t, h, "", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(chartURL.FindAllString(rec.Body.String(), -1), ShouldBeEmpty)
		})

		Convey("POST with an empty filename counts as no file", func() {
			rec := postClip(t, h, "file", "", wav)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(chartURL.FindAllString(rec.Body.String(), -1), ShouldBeEmpty)
		})

		Convey("POST with a WAV renders four labels and charts", func() {
			rec := postClip(t, h, "file", "voice.wav", wav)
			page := rec.Body.String()

			So(rec.Code, ShouldEqual, http.StatusOK)
			urls := chartURL.FindAllString(page, -1)
			So(len(urls), ShouldEqual, 4)
			for _, c := range models.Categories {
				So(page, ShouldContainSubstring, c.Title())
			}

			Convey("And the charts are served", func() {
				for _, u := range urls {
					img := httptest.NewRecorder()
					h.ServeHTTP(img, httptest.NewRequest(http.MethodGet, u, nil))
					So(img.Code, ShouldEqual, http.StatusOK)
					So(img.Header().Get("Content-Type"), ShouldEqual, "image/png")
				}
			})

			Convey("And the clip is stored under its sanitized name", func() {
				_, err := os.Stat(filepath.Join(cfg.Storage.UploadDir, "voice.wav"))
				So(err, ShouldBeNil)
			})
		})

		Convey("POST with recorded_data is treated like file", func() {
			rec := postClip(t, h, "recorded_data", "recording.wav", wav)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(len(chartURL.FindAllString(rec.Body.String(), -1)), ShouldEqual, 4)
		})

		Convey("POST with non-audio bytes is a 400 with a message", func() {
			rec := postClip(t, h, "file", "notes.txt", []byte("definitely not audio"))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(rec.Body.String(), ShouldContainSubstring, "Could not analyze")
		})

		Convey("POST larger than 16 MiB is a 413", func() {
			big := make([]byte, config.DefaultMaxUploadBytes+1)
			rec := postClip(t, h, "file", "huge.wav", big)
			So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)

			entries, _ := os.ReadDir(cfg.Storage.UploadDir)
			So(len(entries), ShouldEqual, 0)
		})

		Convey("A streamed body over the limit is also a 413", func() {
			body, contentType := multipartBody(t, "file", "huge.wav", make([]byte, config.DefaultMaxUploadBytes+1))
			req := httptest.NewRequest(http.MethodPost, "/", io.MultiReader(body))
			req.ContentLength = -1
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})
	})
}

func TestConcurrentUploads(t *testing.T) {
	Convey("Given two clips posted at the same time", t, func() {
		h, cfg := newTestRouter(t)
		srv := httptest.NewServer(h)
		defer srv.Close()

		wav := audiotest.EncodeWAV(t, audiotest.Tone(220, 4, 16000), 16000, 1)
		pages := make([]string, 2)
		codes := make([]int, 2)

		var wg sync.WaitGroup
		for i := range pages {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				body, contentType := multipartBody(t, "file", "clip.wav", wav)
				resp, err := http.Post(srv.URL+"/", contentType, body)
				if err != nil {
					return
				}
				defer resp.Body.Close()
				b, _ := io.ReadAll(resp.Body)
				codes[i], pages[i] = resp.StatusCode, string(b)
			}(i)
		}
		wg.Wait()

		Convey("Each response references its own existing chart set", func() {
			So(codes, ShouldResemble, []int{200, 200})
			first := chartURL.FindAllString(pages[0], -1)
			second := chartURL.FindAllString(pages[1], -1)
			So(len(first), ShouldEqual, 4)
			So(len(second), ShouldEqual, 4)

			for i := range first {
				So(first[i], ShouldNotEqual, second[i])
			}
			for _, u := range append(first, second...) {
				rel := strings.TrimPrefix(u, "/static/graphs/")
				_, err := os.Stat(filepath.Join(cfg.Storage.GraphDir, filepath.FromSlash(rel)))
				So(err, ShouldBeNil)
			}
		})
	})
}

func TestAnalysesRoutes(t *testing.T) {
	Convey("Given one processed upload", t, func() {
		h, _ := newTestRouter(t)
		wav := audiotest.EncodeWAV(t, audiotest.Tone(440, 4, 16000), 16000, 1)
		So(postClip(t, h, "file", "voice.wav", wav).Code, ShouldEqual, http.StatusOK)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses", nil))
		var list struct {
			Analyses []models.Analysis `json:"analyses"`
			Count    int               `json:"count"`
		}
		So(json.Unmarshal(rec.Body.Bytes(), &list), ShouldBeNil)

		Convey("The list contains it", func() {
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(list.Count, ShouldEqual, 1)
			So(list.Analyses[0].Status, ShouldEqual, models.StatusCompleted)
		})

		Convey("It can be fetched by id", func() {
			one := httptest.NewRecorder()
			h.ServeHTTP(one, httptest.NewRequest(http.MethodGet, "/analyses/"+list.Analyses[0].ID, nil))

			var a models.Analysis
			So(one.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(one.Body.Bytes(), &a), ShouldBeNil)
			So(len(a.Features), ShouldEqual, models.FeatureSize)
		})

		Convey("Unknown ids are 404", func() {
			one := httptest.NewRecorder()
			h.ServeHTTP(one, httptest.NewRequest(http.MethodGet, "/analyses/nope", nil))
			So(one.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Health and metrics respond", func() {
			health := httptest.NewRecorder()
			h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			So(health.Body.String(), ShouldContainSubstring, `"status":"ok"`)

			m := httptest.NewRecorder()
			h.ServeHTTP(m, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(m.Body.String(), ShouldContainSubstring, `voice_insight_http_requests_total{endpoint="index",method="POST",status="200"}`)
		})
	})
}

func TestWebSocket(t *testing.T) {
	Convey("Given a WebSocket connection", t, func() {
		h, _ := newTestRouter(t)
		srv := httptest.NewServer(h)
		defer srv.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("ping is answered with pong", func() {
			So(conn.WriteJSON(WebSocketMessage{Type: "ping"}), ShouldBeNil)
			var reply WebSocketMessage
			So(conn.ReadJSON(&reply), ShouldBeNil)
			So(reply.Type, ShouldEqual, "pong")
		})

		Convey("A complete clip is analyzed", func() {
			wav := audiotest.EncodeWAV(t, audiotest.Tone(440, 4, 16000), 16000, 1)
			So(conn.WriteJSON(WebSocketMessage{Type: "analyze", Filename: "mic.wav", Data: wav}), ShouldBeNil)

			var reply WebSocketMessage
			So(conn.ReadJSON(&reply), ShouldBeNil)
			So(reply.Type, ShouldEqual, "analysis_complete")
			So(reply.Analysis, ShouldNotBeNil)
			So(reply.Analysis.Prediction.Validate(), ShouldBeNil)
			So(len(reply.Analysis.Charts), ShouldEqual, 4)
		})

		Convey("Undecodable data yields an error message", func() {
			So(conn.WriteJSON(WebSocketMessage{Type: "analyze", Data: []byte("nope")}), ShouldBeNil)
			var reply WebSocketMessage
			So(conn.ReadJSON(&reply), ShouldBeNil)
			So(reply.Type, ShouldEqual, "error")
			So(reply.AnalysisID, ShouldNotBeEmpty)
			So(reply.Error, ShouldEqual, analyzeFailedMessage)
			So(reply.Error, ShouldNotContainSubstring, "format")
			So(reply.Error, ShouldNotContainSubstring, string(filepath.Separator))
		})

		Convey("Unknown types are rejected", func() {
			So(conn.WriteJSON(WebSocketMessage{Type: "stream"}), ShouldBeNil)
			var reply WebSocketMessage
			So(conn.ReadJSON(&reply), ShouldBeNil)
			So(reply.Error, ShouldEqual, "Unknown message type")
		})
	})
}
