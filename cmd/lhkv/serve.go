package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mapworks/lhmap/pkg/cli"
	"github.com/mapworks/lhmap/pkg/registry"
	"github.com/mapworks/lhmap/pkg/server"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// serve turns the CLI process into an lhkv server process.
func serve(w io.Writer, c cli.CommandServe) {
	// A .env file, if present, overrides the process environment
	// before the config is read.
	_ = godotenv.Overload()

	conf := ReadConfig(w, c.ConfigPath)
	if conf == nil {
		return
	}

	l := log.Logger{
		Level:  log.InfoLevel,
		Writer: &log.IOWriter{Writer: w},
	}

	reg := registry.New(
		conf.ExpectedKeys, conf.MaxValueSize, conf.ProtectedKeys,
	)
	defer reg.Close()

	var s *server.Server
	{
		lServer := l
		lServer.Context = log.NewContext(nil).
			Str("component", "server").Value()
		s = server.New(conf, reg, lServer)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Serve(nil)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown()
	})
	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("terminating")
	}
}
