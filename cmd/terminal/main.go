package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pointrec/attendance-terminal/internal/config"
	appHTTP "github.com/pointrec/attendance-terminal/internal/handler/http"
	"github.com/pointrec/attendance-terminal/internal/pkg/cron"
	"github.com/pointrec/attendance-terminal/internal/pkg/database"
	"github.com/pointrec/attendance-terminal/internal/pkg/jwt"
	"github.com/pointrec/attendance-terminal/internal/reader"
	"github.com/pointrec/attendance-terminal/internal/repository/postgresql"
	"github.com/pointrec/attendance-terminal/internal/repository/sqlite"
	absenceService "github.com/pointrec/attendance-terminal/internal/service/absence"
	reportService "github.com/pointrec/attendance-terminal/internal/service/report"
	tapService "github.com/pointrec/attendance-terminal/internal/service/tap"
	"github.com/pointrec/attendance-terminal/internal/store"
	syncer "github.com/pointrec/attendance-terminal/internal/sync"
)

func main() {
	if err := run(); err != nil {
		fmt.Println("Fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	local, err := sqlite.Open(cfg.Local.Path)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer local.Close()

	var remote *postgresql.Store
	if cfg.RemoteEnabled() {
		db, err := database.NewPostgreSQLDB(context.Background(), cfg.RemoteURL())
		if err != nil {
			return fmt.Errorf("configuring remote store: %w", err)
		}
		remote = postgresql.NewStore(db)
		defer remote.Close()
	}

	var attendanceStore *store.Store
	if remote != nil {
		attendanceStore = store.New(local, remote)
	} else {
		attendanceStore = store.New(local, nil)
	}

	taps := tapService.NewService(attendanceStore, cfg.Tap.Tolerance, cfg.Tap.Debounce)
	reports := reportService.NewService(attendanceStore)
	sweeper := absenceService.NewSweeper(attendanceStore, cfg.Absence.Site, cfg.Absence.CutoffHour)

	readersCfg, err := reader.LoadConfig(cfg.App.ReadersPath)
	if err != nil {
		return fmt.Errorf("loading readers: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Card readers. Without reader hardware the first site falls back
	// to manual stdin input so the terminal stays usable.
	var loops []*reader.Loop
	for i, site := range readersCfg.Sites {
		var dev reader.Reader
		if i == 0 {
			dev = reader.NewManualReader(site.ReaderName, os.Stdin)
		} else {
			slog.Warn("No reader attached for site, skipping", "site", site.Site)
			continue
		}
		loop := reader.NewLoop(dev, site.Site, func(ctx context.Context, rawUID, siteName string) error {
			_, err := taps.ProcessTap(ctx, rawUID, siteName)
			return err
		})
		loop.Start(ctx)
		loops = append(loops, loop)
	}
	defer func() {
		for _, loop := range loops {
			loop.Stop()
		}
	}()

	// Periodic jobs.
	scheduler := cron.NewScheduler()
	var coordinator *syncer.Coordinator
	if remote != nil {
		coordinator = syncer.NewCoordinator(local, remote, attendanceStore)
		scheduler.AddJob("sync_cycle", cfg.Sync.Interval, func(ctx context.Context) error {
			err := coordinator.RunCycle(ctx)
			if errors.Is(err, syncer.ErrCycleRunning) {
				return nil
			}
			return err
		})
	}
	scheduler.AddJob("absence_sweep", 15*time.Minute, sweeper.Sweep)
	scheduler.Start()
	defer scheduler.Stop()

	// Admin HTTP API.
	jwtService := jwt.NewJWTService(cfg.Admin.JWTSecret)
	employeeHandler := appHTTP.NewEmployeeHandler(attendanceStore)
	attendanceHandler := appHTTP.NewAttendanceHandler(reports, attendanceStore, taps)
	syncHandler := appHTTP.NewSyncHandler(coordinatorOrStub(coordinator), attendanceStore)

	router := appHTTP.NewRouter(jwtService, cfg.App.Env, employeeHandler, attendanceHandler, syncHandler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Admin API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("admin API: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Admin API shutdown", "error", err)
	}

	// Final sync so the day's taps reach the central server before the
	// terminal powers off.
	if coordinator != nil {
		if err := coordinator.RunCycle(shutdownCtx); err != nil && !errors.Is(err, syncer.ErrCycleRunning) {
			slog.Error("Final sync cycle failed", "error", err)
		}
	}

	return nil
}

// coordinatorOrStub keeps the sync endpoints working on offline-only
// deployments, where there is nothing to sync with.
func coordinatorOrStub(c *syncer.Coordinator) appHTTP.SyncCoordinator {
	if c != nil {
		return c
	}
	return offlineCoordinator{}
}

type offlineCoordinator struct{}

func (offlineCoordinator) State() syncer.State { return syncer.StateIdle }

func (offlineCoordinator) LastReport() syncer.Report { return syncer.Report{} }

func (offlineCoordinator) RunCycle(context.Context) error { return nil }
