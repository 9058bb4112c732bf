package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kirillkom/ul-rag-assistant/internal/bootstrap"
	"github.com/kirillkom/ul-rag-assistant/internal/chat"
	"github.com/kirillkom/ul-rag-assistant/internal/config"
	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New("ul-rag", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if app.Metrics != nil {
		go func() {
			addr := ":" + cfg.MetricsPort
			mux := http.NewServeMux()
			mux.Handle("/metrics", app.Metrics.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics_listener_failed", "addr", addr, "error", err)
			}
		}()
	}

	if app.Queue != nil {
		go func() {
			err := app.Queue.SubscribeIndexRebuilt(ctx, func(_ context.Context, path string) error {
				logger.Info("index_rebuild_notification", "path", path)
				return app.Index.Reload()
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("index_reload_subscription_failed", "error", err)
			}
		}()
	}

	sessionOpts := []chat.Option{chat.WithLogger(logger), chat.WithLocale(cfg.DefaultLocale)}
	if app.TurnStore != nil {
		sessionOpts = append(sessionOpts, chat.WithTurnStore(app.TurnStore))
	}
	session := chat.NewSession(app.Pipeline, sessionOpts...)

	fmt.Printf("UL assistant ready (session %s). Commands: /reset, /mode student|staff, /quit\n", session.ID())
	runLoop(ctx, session)
}

func runLoop(ctx context.Context, session *chat.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(session, line); quit {
				return
			}
			continue
		}

		turn := session.Ask(ctx, line)
		fmt.Println(turn.Content)
		for _, citation := range turn.Citations {
			fmt.Printf("  [%d] %s\n", citation.N, citation.Source)
		}
		fmt.Println()
	}
}

func handleCommand(session *chat.Session, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/reset":
		session.Reset()
		fmt.Println("session history cleared")
	case "/mode":
		if len(fields) < 2 {
			fmt.Printf("current mode: %s\n", session.Mode())
			return false
		}
		switch fields[1] {
		case "student":
			session.SetMode(domain.ModeStudent)
			fmt.Println("mode set to student")
		case "staff":
			session.SetMode(domain.ModeStaff)
			fmt.Println("mode set to staff")
		default:
			fmt.Println("usage: /mode student|staff")
		}
	default:
		fmt.Println("commands: /reset, /mode student|staff, /quit")
	}
	return false
}
