// Package server exposes a registry over an HTTP key-value API.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mapworks/lhmap/pkg/atoi"
	"github.com/mapworks/lhmap/pkg/auth"
	"github.com/mapworks/lhmap/pkg/config"
	"github.com/mapworks/lhmap/pkg/registry"
	"github.com/mapworks/lhmap/pkg/statistics"
	plog "github.com/phuslu/log"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

const PathKeys = "/keys"
const PathKeyPrefix = "/keys/"
const PathStats = "/stats"

// Server is the lhkv ingress serving the key-value API.
type Server struct {
	config   *config.Config
	registry *registry.Registry
	auth     *auth.Validator
	server   *fasthttp.Server
	log      plog.Logger
	stats    *statistics.ServerSync
	start    time.Time
}

func New(
	conf *config.Config,
	reg *registry.Registry,
	log plog.Logger,
) *Server {
	var validator *auth.Validator
	if conf.Auth.Secret != "" {
		validator = auth.NewValidator(conf.Auth.Secret)
	}

	lFasthttp := log
	lFasthttp.Context = plog.NewContext(nil).
		Str("server-module", "fasthttp").Value()

	srv := &Server{
		config:   conf,
		registry: reg,
		auth:     validator,
		log:      log,
		stats:    statistics.NewServerSync(),
		start:    time.Now(),
		server: &fasthttp.Server{
			Name:         "lhkv",
			ReadTimeout:  conf.ReadTimeout.Std(),
			WriteTimeout: conf.WriteTimeout.Std(),
			Logger:       serverLogger{log: lFasthttp},
		},
	}
	srv.server.Handler = srv.handle
	return srv
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	s.route(ctx)

	requestID := uuid.New().String()
	ctx.Response.Header.Set("X-Request-Id", requestID)

	status := ctx.Response.StatusCode()
	rejected := status >= fasthttp.StatusBadRequest
	s.stats.Update(
		len(ctx.Request.Body()),
		len(ctx.Response.Body()),
		rejected,
		time.Since(start),
	)
	s.log.Info().
		Str("request-id", requestID).
		Bytes("method", ctx.Method()).
		Bytes("path", ctx.Path()).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("handled request")
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	path := ctx.Path()
	switch {
	case string(path) == PathStats:
		if !ctx.IsGet() {
			errorStatus(ctx, fasthttp.StatusMethodNotAllowed)
			return
		}
		s.handleStats(ctx)
	case string(path) == PathKeys:
		if !ctx.IsGet() {
			errorStatus(ctx, fasthttp.StatusMethodNotAllowed)
			return
		}
		s.handleList(ctx)
	case bytes.HasPrefix(path, []byte(PathKeyPrefix)):
		key := string(path[len(PathKeyPrefix):])
		if key == "" {
			errorStatus(ctx, fasthttp.StatusNotFound)
			return
		}
		switch {
		case ctx.IsGet():
			s.handleGet(ctx, key)
		case ctx.IsPut():
			if s.authorize(ctx) {
				s.handlePut(ctx, key)
			}
		case ctx.IsDelete():
			if s.authorize(ctx) {
				s.handleDelete(ctx, key)
			}
		default:
			errorStatus(ctx, fasthttp.StatusMethodNotAllowed)
		}
	default:
		errorStatus(ctx, fasthttp.StatusNotFound)
	}
}

// authorize guards mutating requests. Returns true if the request may
// proceed, otherwise responds with 401 or 403.
func (s *Server) authorize(ctx *fasthttp.RequestCtx) bool {
	if s.auth == nil {
		return true
	}
	const prefix = "Bearer "
	h := ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)
	if !bytes.HasPrefix(h, []byte(prefix)) {
		errorStatus(ctx, fasthttp.StatusUnauthorized)
		return false
	}
	claims, err := s.auth.ValidateToken(string(h[len(prefix):]))
	if err != nil {
		errorStatus(ctx, fasthttp.StatusUnauthorized)
		return false
	}
	if claims.Role != auth.RoleAdmin {
		errorStatus(ctx, fasthttp.StatusForbidden)
		return false
	}
	return true
}

func (s *Server) handleGet(ctx *fasthttp.RequestCtx, key string) {
	e, err := s.registry.Get(key)
	if err != nil {
		errorStatus(ctx, fasthttp.StatusNotFound)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, makeEntry(e))
}

func (s *Server) handlePut(ctx *fasthttp.RequestCtx, key string) {
	body := ctx.Request.Body()
	if !gjson.ValidBytes(body) {
		errorStatus(ctx, fasthttp.StatusBadRequest)
		return
	}
	value := gjson.GetBytes(body, "value")
	if !value.Exists() {
		errorStatus(ctx, fasthttp.StatusBadRequest)
		return
	}

	e, created, err := s.registry.Put(key, []byte(value.Raw))
	if err != nil {
		if errors.Is(err, registry.ErrValueTooLarge) {
			errorStatus(ctx, fasthttp.StatusRequestEntityTooLarge)
			return
		}
		errorStatus(ctx, fasthttp.StatusInternalServerError)
		return
	}
	status := fasthttp.StatusOK
	if created {
		status = fasthttp.StatusCreated
	}
	writeJSON(ctx, status, makeEntry(e))
}

func (s *Server) handleDelete(ctx *fasthttp.RequestCtx, key string) {
	switch err := s.registry.Delete(key); {
	case err == nil:
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	case errors.Is(err, registry.ErrProtected):
		errorStatus(ctx, fasthttp.StatusForbidden)
	case errors.Is(err, registry.ErrNotFound):
		errorStatus(ctx, fasthttp.StatusNotFound)
	default:
		errorStatus(ctx, fasthttp.StatusInternalServerError)
	}
}

func (s *Server) handleList(ctx *fasthttp.RequestCtx) {
	limit := 0
	if b := ctx.QueryArgs().Peek("limit"); len(b) > 0 {
		n, err := atoi.I32(b)
		if err != nil || n < 0 {
			errorStatus(ctx, fasthttp.StatusBadRequest)
			return
		}
		limit = int(n)
	}
	entries := s.registry.Snapshot(limit)
	out := make([]entryJSON, len(entries))
	for i := range entries {
		out[i] = makeEntry(entries[i])
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) handleStats(ctx *fasthttp.RequestCtx) {
	st := s.registry.Stats()
	writeJSON(ctx, fasthttp.StatusOK, statsJSON{
		Uptime: time.Since(s.start).Round(time.Second).String(),
		Keys:   s.registry.Len(),
		Store: storeStatsJSON{
			Lookups:          st.GetLookups(),
			Hits:             st.GetHits(),
			Misses:           st.GetMisses(),
			Puts:             st.GetPuts(),
			Overwrites:       st.GetOverwrites(),
			Deletes:          st.GetDeletes(),
			StoredBytes:      st.GetStoredBytes(),
			StoredBytesHuman: humanize.Bytes(uint64(st.GetStoredBytes())),
			FreedBytes:       st.GetFreedBytes(),
			FreedBytesHuman:  humanize.Bytes(uint64(st.GetFreedBytes())),
			AverageOpTime:    time.Duration(st.GetAverageOpTime()).String(),
			HighestOpTime:    time.Duration(st.GetHighestOpTime()).String(),
		},
		Server: serverStatsJSON{
			HandledRequests:     s.stats.GetHandledRequests(),
			RejectedRequests:    s.stats.GetRejectedRequests(),
			ServedRequests:      s.stats.GetServedRequests(),
			ReceivedBytes:       s.stats.GetReceivedBytes(),
			ReceivedBytesHuman:  humanize.Bytes(uint64(s.stats.GetReceivedBytes())),
			SentBytes:           s.stats.GetSentBytes(),
			SentBytesHuman:      humanize.Bytes(uint64(s.stats.GetSentBytes())),
			AverageResponseTime: time.Duration(s.stats.GetAverageResponseTime()).String(),
			HighestResponseTime: time.Duration(s.stats.GetHighestResponseTime()).String(),
		},
	})
}

// Serve starts the server. If listener is nil the configured listen
// address is used.
func (s *Server) Serve(listener net.Listener) {
	s.log.Info().
		Str("listen", s.config.Listen).
		Bool("auth", s.auth != nil).
		Int("expected-keys", s.config.ExpectedKeys).
		Int("max-value-size", s.config.MaxValueSize).
		Strs("protected-keys", s.config.ProtectedKeys).
		Msg("listening")

	var err error
	if listener != nil {
		err = s.server.Serve(listener)
	} else {
		err = s.server.ListenAndServe(s.config.Listen)
	}
	if err != nil {
		s.log.Fatal().Err(err).Msg("listening")
	}
}

// Shutdown returns once the server was shutdown.
// Logs shutdown and errors.
func (s *Server) Shutdown() error {
	err := s.server.Shutdown()
	if err != nil {
		s.log.Error().Err(err).Msg("shutting down")
		return err
	}
	s.log.Info().Msg("shutdown")
	return nil
}

type entryJSON struct {
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
	Revision uint64          `json:"revision"`
	Updated  time.Time       `json:"updated"`
}

func makeEntry(e registry.Entry) entryJSON {
	return entryJSON{
		Key:      e.Key,
		Value:    json.RawMessage(e.Value),
		Revision: e.Revision,
		Updated:  e.UpdatedAt,
	}
}

type statsJSON struct {
	Uptime string          `json:"uptime"`
	Keys   int             `json:"keys"`
	Store  storeStatsJSON  `json:"store"`
	Server serverStatsJSON `json:"server"`
}

type storeStatsJSON struct {
	Lookups          int64  `json:"lookups"`
	Hits             int64  `json:"hits"`
	Misses           int64  `json:"misses"`
	Puts             int64  `json:"puts"`
	Overwrites       int64  `json:"overwrites"`
	Deletes          int64  `json:"deletes"`
	StoredBytes      int64  `json:"stored-bytes"`
	StoredBytesHuman string `json:"stored-bytes-human"`
	FreedBytes       int64  `json:"freed-bytes"`
	FreedBytesHuman  string `json:"freed-bytes-human"`
	AverageOpTime    string `json:"average-op-time"`
	HighestOpTime    string `json:"highest-op-time"`
}

type serverStatsJSON struct {
	HandledRequests     int64  `json:"handled-requests"`
	RejectedRequests    int64  `json:"rejected-requests"`
	ServedRequests      int64  `json:"served-requests"`
	ReceivedBytes       int64  `json:"received-bytes"`
	ReceivedBytesHuman  string `json:"received-bytes-human"`
	SentBytes           int64  `json:"sent-bytes"`
	SentBytesHuman      string `json:"sent-bytes-human"`
	AverageResponseTime string `json:"average-response-time"`
	HighestResponseTime string `json:"highest-response-time"`
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		errorStatus(ctx, fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(b)
}

func errorStatus(ctx *fasthttp.RequestCtx, status int) {
	ctx.Error(fasthttp.StatusMessage(status), status)
}

type serverLogger struct {
	log plog.Logger
}

func (l serverLogger) Printf(format string, v ...any) {
	l.log.Info().Msgf(format, v...)
}
