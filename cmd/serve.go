package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quizlab/quizd/internal/answer"
	"github.com/quizlab/quizd/internal/model"
)

var servePort int

// heartbeatBody is the fixed liveness response existing clients poll for.
const heartbeatBody = "服务已启动"

// questionAnswerer is the engine surface the HTTP handlers need.
type questionAnswerer interface {
	Answer(ctx context.Context, q model.Question, skipCache bool) (*answer.Result, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP answering server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Engine),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP surface: a liveness probe and the /search
// answering endpoint accepting both GET query params and POST JSON.
func newRouter(engine questionAnswerer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead},
		AllowedHeaders: []string{"Content-Type"},
	}))

	probe := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(heartbeatBody)
	}
	r.Get("/", probe)
	r.Head("/", probe)

	r.Get("/search", func(w http.ResponseWriter, req *http.Request) {
		params := req.URL.Query()
		handleSearch(w, req, searchRequest{
			Title:     params.Get("title"),
			Options:   params.Get("options"),
			Type:      params.Get("type"),
			SkipCache: strings.EqualFold(params.Get("skip_cache"), "true"),
		}, engine)
	})

	r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
		var body searchRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, searchFailure("invalid request body"))
			return
		}
		handleSearch(w, req, body, engine)
	})

	return r
}

// searchRequest is the wire shape shared by the GET and POST forms.
type searchRequest struct {
	Title     string `json:"title"`
	Options   string `json:"options"`
	Type      string `json:"type"`
	SkipCache bool   `json:"skip_cache"`
}

// searchResponse is the wire contract clients depend on: code 1 carries an
// answer, code 0 carries a message. Failures still answer HTTP 200.
type searchResponse struct {
	Code     int    `json:"code"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Msg      string `json:"msg,omitempty"`
}

func searchFailure(msg string) searchResponse {
	return searchResponse{Code: 0, Msg: msg}
}

func handleSearch(w http.ResponseWriter, req *http.Request, in searchRequest, engine questionAnswerer) {
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, searchFailure("title is required"))
		return
	}

	q := model.Question{
		Title:   in.Title,
		Options: in.Options,
		Kind:    model.ParseKind(in.Type),
	}

	result, err := engine.Answer(req.Context(), q, in.SkipCache)
	if err != nil {
		zap.L().Error("answer request failed",
			zap.String("title", in.Title),
			zap.Error(err),
		)
		writeJSON(w, searchFailure(err.Error()))
		return
	}

	writeJSON(w, searchResponse{
		Code:     1,
		Question: in.Title,
		Answer:   result.Answer,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
