package serverapp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"comics-graphql/internal/config"
	"comics-graphql/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: "error", Format: "text"})
}

func TestWaitForStop_ContextWins(t *testing.T) {
	app := &App{logger: testLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reason, err := app.WaitForStop(ctx, make(chan error))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopReasonContext {
		t.Fatalf("expected reason=%s, got %q", StopReasonContext, reason)
	}
}

func TestWaitForStop_ServerErrorWins(t *testing.T) {
	app := &App{logger: testLogger()}
	serverErrors := make(chan error, 1)
	serverErrors <- errors.New("address in use")

	reason, err := app.WaitForStop(context.Background(), serverErrors)
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("expected server error, got %v", err)
	}
	if reason != StopReasonServerError {
		t.Fatalf("expected reason=%s, got %q", StopReasonServerError, reason)
	}
}

func TestWaitForStop_NothingToWaitFor(t *testing.T) {
	app := &App{logger: testLogger()}
	if _, err := app.WaitForStop(nil, nil); err == nil {
		t.Fatalf("expected error without a context or server")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	app := &App{logger: testLogger()}
	var calls int32
	app.cleanup.push("store", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("first shutdown failed: %v", err)
	}
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected cleanup to run once, ran %d times", got)
	}
}

func TestShutdown_ReleasesInReverseOrderAndJoinsErrors(t *testing.T) {
	app := &App{logger: testLogger()}
	var order []string
	app.cleanup.push("database", func(context.Context) error {
		order = append(order, "database")
		return errors.New("close failed")
	})
	app.cleanup.push("HTTP server", func(context.Context) error {
		order = append(order, "HTTP server")
		return nil
	})

	err := app.Shutdown(context.Background())
	if err == nil || !strings.Contains(err.Error(), "database: close failed") {
		t.Fatalf("expected joined release error, got %v", err)
	}
	if len(order) != 2 || order[0] != "HTTP server" || order[1] != "database" {
		t.Fatalf("unexpected release order %v", order)
	}
	if again := app.Shutdown(context.Background()); again == nil {
		t.Fatalf("expected repeated shutdown to report the first result")
	}
}

func TestStart_BeforeInit_Fails(t *testing.T) {
	app := &App{logger: testLogger()}
	if _, err := app.Start(); err == nil {
		t.Fatalf("expected start to fail before init")
	}
}

func TestStartAndShutdown_HappyPath(t *testing.T) {
	app := &App{
		cfg:    &config.Config{},
		logger: testLogger(),
		srv: &http.Server{
			Addr:    "127.0.0.1:0",
			Handler: http.NewServeMux(),
		},
		initialized: true,
	}
	app.cleanup.push("HTTP server", func(ctx context.Context) error {
		return app.srv.Shutdown(ctx)
	})

	first, err := app.Start()
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	second, err := app.Start()
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected repeated Start to return the same channel")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestInitFailure_DoesNotMarkInitialized(t *testing.T) {
	appCfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     1,
			User:     "comics",
			Password: "invalid",
			Database: "gcd",
			TLS:      config.DatabaseTLSConfig{Mode: "off"},
			Pool: config.PoolConfig{
				MaxOpen:     1,
				MaxIdle:     1,
				MaxLifetime: time.Second,
			},
			ConnectionRetryInterval: 10 * time.Millisecond,
		},
		Server: config.ServerConfig{
			Port:                18089,
			GraphQLDefaultLimit: 20,
			ReadTimeout:         time.Second,
			WriteTimeout:        time.Second,
			IdleTimeout:         time.Second,
			ShutdownTimeout:     time.Second,
			HealthCheckTimeout:  time.Second,
		},
		Observability: config.ObservabilityConfig{
			ServiceName:    "comics-graphql",
			ServiceVersion: "test",
			Environment:    "test",
			Logging:        config.LoggingConfig{Level: "error", Format: "text"},
		},
	}

	app, err := New(appCfg, testLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := app.Init(context.Background()); err == nil {
		t.Fatalf("expected init to fail with unreachable database")
	}

	app.stateMu.Lock()
	initialized := app.initialized
	app.stateMu.Unlock()
	if initialized {
		t.Fatalf("app should not be marked initialized after failed Init")
	}
	if app.Handler() != nil {
		t.Fatalf("handler should stay nil after failed Init")
	}
}

func TestNew_RequiresConfigAndLogger(t *testing.T) {
	if _, err := New(nil, testLogger()); err == nil {
		t.Fatalf("expected error without config")
	}
	if _, err := New(&config.Config{}, nil); err == nil {
		t.Fatalf("expected error without logger")
	}
}
