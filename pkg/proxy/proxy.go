// Package proxy serves the web client and forwards API calls to the task
// store backend.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrisonrobin/steady/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Prefixes are the backend routes the proxy forwards.
var Prefixes = []string{
	"/tasks",
	"/analytics",
	"/motivation",
	"/login",
	"/register",
	"/signup",
	"/google-login",
	"/wellness",
	"/me",
	"/change-password",
	"/set-password",
	"/gender",
}

const shutdownTimeout = 10 * time.Second

// ShouldProxy reports whether path belongs to the backend. Prefixes match
// whole segments, so /me does not capture /metrics.
func ShouldProxy(path string) bool {
	for _, p := range Prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

type Server struct {
	cfg      config.ProxyConfig
	log      *logrus.Entry
	upstream *httputil.ReverseProxy
	registry *prometheus.Registry
	metrics  *metrics
	handler  http.Handler
}

// New builds the proxy. An empty Upstream disables forwarding.
func New(cfg config.ProxyConfig, log *logrus.Entry) (*Server, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		cfg:      cfg,
		log:      log.WithField("component", "proxy"),
		registry: prometheus.NewRegistry(),
	}
	s.registry.MustRegister(collectors.NewGoCollector())
	s.metrics = newMetrics(s.registry)

	if cfg.Upstream != "" {
		target, err := url.Parse(cfg.Upstream)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("invalid upstream %q", cfg.Upstream)
		}
		s.upstream = s.reverseProxy(target)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/ping", s.ping)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.Handle("/", s.staticHandler())

	s.handler = withRequestID(withLogging(s.log, s.metrics.wrap(s.route(mux))))
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.handler }

// route sends backend calls upstream and everything else to mux. HTML
// navigations always stay local so deep links load the web client.
func (s *Server) route(local http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
		if s.upstream == nil || html || !ShouldProxy(r.URL.Path) {
			local.ServeHTTP(w, r)
			return
		}
		s.upstream.ServeHTTP(w, r)
	})
}

func (s *Server) reverseProxy(target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			// The transport negotiates compression itself and decodes the body.
			pr.Out.Header.Del("Accept-Encoding")
			pr.Out.Host = target.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.metrics.upstream.WithLabelValues(normalizeRoute(r.URL.Path)).Inc()
			s.log.WithError(err).WithFields(logrus.Fields{
				"request_id": RequestID(r.Context()),
				"path":       r.URL.Path,
			}).Warn("upstream request failed")
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"message": "Proxy error",
				"error":   err.Error(),
			})
		},
	}
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	msg := s.cfg.PingMessage
	if msg == "" {
		msg = "ping"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// staticHandler serves the built web client, answering unknown paths with
// index.html so client-side routes resolve.
func (s *Server) staticHandler() http.Handler {
	if s.cfg.StaticDir == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
		})
	}
	root := http.Dir(s.cfg.StaticDir)
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "index.html"))
	})
}

// ListenAndServe runs until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{
			"listen":   s.cfg.Listen,
			"upstream": s.cfg.Upstream,
		}).Info("proxy listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("proxy shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
