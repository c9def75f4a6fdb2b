package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/highscan/internal/api"
	"github.com/wonny/highscan/internal/api/handlers"
	"github.com/wonny/highscan/internal/scheduler"
	"github.com/wonny/highscan/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 스케줄러 시작",
	Long: `HTTP API 서버와 일별 스케줄러를 함께 시작합니다.

Jobs:
  daily_screen        - SCHEDULE (기본 평일 15:30 CST)
  day_file_retention  - 매일 03:00, RETENTION_DAYS 보다 오래된 파일 삭제

Endpoints:
  GET  /health
  GET  /api/days
  GET  /api/results/{date}
  GET  /api/universe/{date}
  GET  /api/runs/today
  POST /api/runs             - 오늘 실행 트리거
  GET  /api/jobs
  POST /api/jobs/{name}/run
  GET  /ws/progress          - 진행률 스트림 (websocket)
  GET  /data/{file}          - DATA_DIR 파일 (뷰어용)
  GET  /metrics              - prometheus

Example:
  go run ./cmd/highscan serve
  go run ./cmd/highscan serve --port 8090 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort        string
	serveNoScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default PORT)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "스케줄러 없이 API 만 실행")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg, log := a.cfg, a.log
	if servePort != "" {
		cfg.Port = servePort
	}

	// Triggered and scheduled runs stop with the process
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Progress stream
	hub := handlers.NewProgressHub(log)
	a.screener.OnProgress(hub.Publish)

	// 2. Scheduler
	sched := scheduler.New(log, a.location)
	if err := sched.AddJob(jobs.NewScreenJob(a.runner, cfg.DataDir, cfg.ErrorLogPath, a.location, cfg.Schedule, log)); err != nil {
		return fmt.Errorf("add screen job: %w", err)
	}
	if cfg.RetentionDays > 0 {
		if err := sched.AddJob(jobs.NewRetentionJob(cfg.DataDir, cfg.RetentionDays, a.location, log)); err != nil {
			return fmt.Errorf("add retention job: %w", err)
		}
	}

	// 3. Router
	h := api.Handlers{
		Days:     handlers.NewDaysHandler(cfg.DataDir, log),
		Runs:     handlers.NewRunsHandler(ctx, a.runner, cfg.DataDir, cfg.ErrorLogPath, a.location, log).WithSummaries(a.summaries),
		Jobs:     handlers.NewJobsHandler(sched),
		Progress: hub,
		Files:    http.FileServer(http.Dir(cfg.DataDir)),
	}
	if cfg.MetricsEnabled {
		h.Metrics = a.metrics.Handler()
	}
	server := api.New(cfg, log, api.NewRouter(h, log))

	// 4. Start
	if !serveNoScheduler {
		sched.Start()
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	if !serveNoScheduler {
		fmt.Println("\nRegistered jobs:")
		for _, name := range sched.GetAllJobs() {
			if next, ok := sched.NextRun(name); ok {
				fmt.Printf("  - %-20s next %s\n", name, next.Format("2006-01-02 15:04:05 MST"))
			}
		}
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down...")
	cancel()
	if !serveNoScheduler {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
