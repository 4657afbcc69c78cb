package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terrapesca/checkin-backend-go/internal/config"
	attendanceDomain "github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
	appHTTP "github.com/terrapesca/checkin-backend-go/internal/handler/http"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/connectivity"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/cron"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/database"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/geocode"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/jwt"
	"github.com/terrapesca/checkin-backend-go/internal/repository/localfile"
	"github.com/terrapesca/checkin-backend-go/internal/repository/postgresql"
	attendanceService "github.com/terrapesca/checkin-backend-go/internal/service/attendance"
	"github.com/terrapesca/checkin-backend-go/internal/service/notification"
	syncService "github.com/terrapesca/checkin-backend-go/internal/service/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error configuring database:", err)
		return
	}
	defer db.Close()

	policy, err := attendanceDomain.NewPolicy(
		cfg.Policy.LateCutoff,
		cfg.App.Timezone,
		cfg.Policy.RequireLocation,
		cfg.Policy.EnforceSequence,
		cfg.Policy.NotifyOnReconcile,
	)
	if err != nil {
		fmt.Println("Error building attendance policy:", err)
		return
	}

	vendorRepo := postgresql.NewVendorRepository(db)
	eventRepo := postgresql.NewAttendanceRepository(db)
	pendingStore := localfile.NewPendingStore(cfg.Sync.QueuePath, cfg.Sync.DeadLetterPath, cfg.Sync.MaxAttempts)

	monitor := connectivity.NewMonitor(db)

	dispatcher := notification.NewDispatcher(notification.Config{
		ConfirmationURL: cfg.Notify.ConfirmationURL,
		LateArrivalURL:  cfg.Notify.LateArrivalURL,
		Timeout:         cfg.Notify.Timeout,
		TimeLocation:    policy.Location,
	})

	geocoder := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)

	attendanceSvc := attendanceService.NewAttendanceService(
		eventRepo,
		pendingStore,
		vendorRepo,
		monitor,
		dispatcher,
		geocoder,
		nil, // coordinates arrive with the client request
		policy,
	)

	reconciler := syncService.NewReconciler(
		pendingStore,
		eventRepo,
		vendorRepo,
		monitor,
		dispatcher,
		policy,
	)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	go reconciler.Watch(watchCtx)

	scheduler := cron.NewScheduler()
	scheduler.AddJob("connectivity_probe", cfg.Sync.ProbeInterval, monitor.Probe)
	scheduler.AddJob("reconcile_pending", cfg.Sync.Interval, reconciler.Job)
	scheduler.Start()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	vendorHandler := appHTTP.NewVendorHandler(vendorRepo)
	syncHandler := appHTTP.NewSyncHandler(reconciler)

	router := appHTTP.NewRouter(
		JWTService,
		attendanceHandler,
		vendorHandler,
		syncHandler,
		cfg.App.Env,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{Addr: port, Handler: router}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Println("Server shutdown error:", err)
	}
	scheduler.Stop()
	stopWatch()
	dispatcher.Stop()
}
