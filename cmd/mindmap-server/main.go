package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/video-mindmap/internal/config"
	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/observability"
	"github.com/signalsfoundry/video-mindmap/internal/rpc"
	"github.com/signalsfoundry/video-mindmap/internal/schedule"
	"github.com/signalsfoundry/video-mindmap/internal/session"
	"github.com/signalsfoundry/video-mindmap/kb"
	"github.com/signalsfoundry/video-mindmap/model"
	"github.com/signalsfoundry/video-mindmap/timectrl"
)

// Options are the command-line settings layered over the config file.
type Options struct {
	ConfigPath  string
	GRPCAddr    string
	MetricsAddr string
	Documents   []string
}

type stringList []string

func (l *stringList) String() string     { return fmt.Sprint(*l) }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	var opts Options
	var docs stringList
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to a TOML config file (default $XDG_CONFIG_HOME/mindmap/config.toml if present)")
	flag.StringVar(&opts.GRPCAddr, "grpc-addr", "", "TCP address the gRPC server listens on (overrides server.grpc_addr)")
	flag.StringVar(&opts.MetricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (overrides server.metrics_addr)")
	flag.Var(&docs, "document", "Mind map JSON document to preload into the store (repeatable)")
	flag.Parse()
	opts.Documents = docs

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mindmap-server: %v\n", err)
		os.Exit(1)
	}
	if opts.GRPCAddr != "" {
		cfg.Server.GRPCAddr = opts.GRPCAddr
	}
	if opts.MetricsAddr != "" {
		cfg.Server.MetricsAddr = opts.MetricsAddr
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis, opts.Documents...); err != nil {
		log.Error(ctx, "mindmap server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves the mind map gRPC API on lis until ctx is done.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, lis net.Listener, documents ...string) error {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Noop()
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing.Observability(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewMindMapCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	schedMetrics, err := observability.NewSchedulerCollector(nil)
	if err != nil {
		return fmt.Errorf("init scheduler metrics: %w", err)
	}

	sched := schedMetrics.Instrument(schedule.NewEventScheduler(timectrl.WallClock{}))
	store := kb.NewKnowledgeBase()
	registry := session.NewRegistry(store, sched, log,
		session.WithRegistryMetrics(collector),
		session.WithSessionDefaults(cfg.Engine.SessionOptions()...),
	)
	if err := preloadDocuments(ctx, store, log, documents); err != nil {
		_ = lis.Close()
		return err
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			rpc.RequestIDUnaryServerInterceptor(log),
			rpc.TracingUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
		),
	)
	rpc.RegisterMindMapServer(server, rpc.NewService(registry, log, rpc.WithLayoutObserver(collector)))

	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, collector, log)

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	go schedule.Pump(pumpCtx, sched, cfg.Engine.PumpInterval.Std())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(lis)
	}()
	log.Info(ctx, "starting mind map gRPC server",
		logging.String("addr", lis.Addr().String()),
		logging.Duration("debounce", cfg.Engine.Debounce.Std()),
	)

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down mind map server")
		server.GracefulStop()
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = fmt.Errorf("grpc serve: %w", err)
		}
	}

	stopPump()
	registry.Shutdown(context.Background())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return runErr
}

func serveMetrics(addr string, collector *observability.MindMapCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// preloadDocuments stores each file under its path so clients can open it
// with LoadMap{document_id}.
func preloadDocuments(ctx context.Context, store *kb.KnowledgeBase, log logging.Logger, paths []string) error {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("preload %s: %w", path, err)
		}
		doc, err := model.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("preload %s: %w", path, err)
		}
		if _, err := store.Add(path, doc); err != nil {
			return fmt.Errorf("preload %s: %w", path, err)
		}
		log.Info(ctx, "preloaded mind map document",
			logging.String("document_id", path),
			logging.String("summary", doc.Summary()),
		)
	}
	return nil
}
