package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/chartview/chart"
	"github.com/jsphweid/chartview/config"
	"github.com/jsphweid/chartview/logger"
	"github.com/jsphweid/chartview/model"
	"github.com/jsphweid/chartview/session"
	"github.com/jsphweid/chartview/viewer"
	"github.com/jsphweid/chartview/web"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var (
	serveAddr        string
	serveChart       string
	serveRedrawDelay time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveChart, "chart", "", "chart file to load at start")
	serveCmd.Flags().DurationVar(&serveRedrawDelay, "redraw-delay", 0, "coalesce redraw events within this window")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the viewer",
	Long:  `Serves the viewer page and its JSON API.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cfg)
	},
}

func applyServeFlags(cmd *cobra.Command, c *config.Config) {
	if cmd != serveCmd {
		return
	}
	if cmd.Flags().Changed("addr") {
		c.Addr = serveAddr
	}
	if cmd.Flags().Changed("chart") {
		c.Chart = serveChart
	}
	if cmd.Flags().Changed("redraw-delay") {
		c.RedrawDelay = serveRedrawDelay
	}
}

type server struct {
	sess           *session.Session
	maxUploadBytes int64
}

// NewRouter wires the API for sess behind CORS.
func NewRouter(sess *session.Session, c *config.Config) http.Handler {
	s := &server{sess: sess, maxUploadBytes: c.MaxUploadBytes}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequests)
	router.HandleFunc("/", handleIndex).Methods("GET")
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chart", s.handleGetChart).Methods("GET")
	api.HandleFunc("/chart", s.handleLoadChart).Methods("POST")
	api.HandleFunc("/page", s.handleGetPage).Methods("GET")
	api.HandleFunc("/page/step/{delta:-?[0-9]+}", s.handleStepPage).Methods("POST")
	api.HandleFunc("/page/{index:[0-9]+}", s.handleSetPage).Methods("PUT")
	api.HandleFunc("/pages/{index:[0-9]+}", s.handleViewPage).Methods("GET")
	api.HandleFunc("/events", s.handleEvents).Methods("GET")

	return cors.New(cors.Options{
		AllowedOrigins: c.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
	}).Handler(router)
}

func serve(c *config.Config) error {
	log := logger.GetLogger()
	sess := session.New(c.RedrawDelay)
	if c.Chart != "" {
		loaded, err := chart.ReadFile(c.Chart)
		if err != nil {
			return err
		}
		sess.LoadChart(loaded)
	}
	sess.Subscribe(func(snap session.Snapshot) {
		view := snap.View()
		log.Debug("redraw", "id", snap.ID, "page", snap.PageIndex,
			"notes", len(view.Notes), "tempos", len(view.Tempos))
	})

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           NewRouter(sess, c),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("listening", "addr", c.Addr)
	return srv.ListenAndServe()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.GetLogger().Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "took", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.GetLogger().Error("could not encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(web.Index)
}

func (s *server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Summary())
}

// readUpload returns the chart bytes from either a multipart form with a
// "file" field or a raw body.
func readUpload(body []byte, contentType string) ([]byte, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		return body, nil
	}

	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New(`missing form field "file"`)
		}
		if err != nil {
			return nil, fmt.Errorf("could not read form: %w", err)
		}
		if part.FormName() != "file" {
			continue
		}
		if name := part.FileName(); name != "" && !chart.HasSupportedExtension(name) {
			return nil, fmt.Errorf("%w: %v", chart.ErrUnsupportedExtension, name)
		}
		return io.ReadAll(part)
	}
}

func (s *server) handleLoadChart(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("chart is larger than %d bytes", tooBig.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("could not read request body: %w", err))
		return
	}

	dat, err := readUpload(body, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := s.sess.LoadFile(bytes.NewReader(dat))
	if err != nil {
		logger.GetLogger().Warn("rejected chart", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary())
}

func (s *server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot().View())
}

func intVar(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, fmt.Errorf("invalid %v: %w", name, err)
	}
	return n, nil
}

func (s *server) handleStepPage(w http.ResponseWriter, r *http.Request) {
	delta, err := intVar(r, "delta")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.ChangePage(delta).View())
}

func (s *server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	index, err := intVar(r, "index")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.SetPageIndex(index).View())
}

// handleViewPage renders any page of the loaded chart without moving the
// session. Pages past the end come back empty.
func (s *server) handleViewPage(w http.ResponseWriter, r *http.Request) {
	index, err := intVar(r, "index")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, viewer.Render(s.sess.Snapshot().Chart, index))
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	// only the latest redraw matters, older ones are dropped
	redraws := make(chan session.Snapshot, 1)
	unsubscribe := s.sess.Subscribe(func(snap session.Snapshot) {
		select {
		case <-redraws:
		default:
		}
		select {
		case redraws <- snap:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	send := func(snap session.Snapshot) error {
		dat, err := json.Marshal(model.RedrawEvent{ID: snap.ID.String(), PageIndex: snap.PageIndex})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: redraw\ndata: %s\n\n", dat); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := send(s.sess.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-redraws:
			if err := send(snap); err != nil {
				return
			}
		}
	}
}
