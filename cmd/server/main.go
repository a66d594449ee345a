package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwaxman519/rishi-next-sub005/internal/server"
	"github.com/mwaxman519/rishi-next-sub005/modules"
	"github.com/mwaxman519/rishi-next-sub005/pkg/application"
	"github.com/mwaxman519/rishi-next-sub005/pkg/configuration"
	"github.com/mwaxman519/rishi-next-sub005/pkg/eventbus"
	"github.com/mwaxman519/rishi-next-sub005/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if err := app.Migrations().Run(ctx); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- serverInstance.Start(conf.SocketAddress)
	}()
	log.Printf("Listening on: %s\n", conf.SocketAddress)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	case <-runCtx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second*10)
		defer cancelShutdown()
		if err := serverInstance.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("failed to shut down server: %v", err)
		}
	}
}
