// Package app wires the scheduling engine together from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/4Lajf/grafikonator-6000/api/runs"
	"github.com/4Lajf/grafikonator-6000/config"
	"github.com/4Lajf/grafikonator-6000/core/availability"
	"github.com/4Lajf/grafikonator-6000/core/events"
	corenotify "github.com/4Lajf/grafikonator-6000/core/notify"
	"github.com/4Lajf/grafikonator-6000/core/runlog"
	"github.com/4Lajf/grafikonator-6000/core/scheduling"
	"github.com/4Lajf/grafikonator-6000/core/slotgen"
	"github.com/4Lajf/grafikonator-6000/core/store"
	"github.com/4Lajf/grafikonator-6000/infra/logger"
	"github.com/4Lajf/grafikonator-6000/infra/metrics"
	"github.com/4Lajf/grafikonator-6000/infra/notify"
	memstore "github.com/4Lajf/grafikonator-6000/infra/store/memory"
	sqlitestore "github.com/4Lajf/grafikonator-6000/infra/store/sqlite"
	"github.com/4Lajf/grafikonator-6000/internal/eventbus"
)

// fullStore is what the engine needs from a persistence backend.
type fullStore interface {
	store.Store
	store.SlotUpserter
}

// Service orchestrates the scheduling engine, its stores and its outputs.
type Service struct {
	Scheduler *scheduling.Scheduler
	Assigner  *scheduling.Assigner
	Generator *slotgen.Generator
	Store     fullStore

	cfg      *config.Config
	bus      eventbus.EventBus
	runlog   runlog.Store
	notifier corenotify.Publisher
	log      logger.AuditLogger
	closers  []func() error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	svc := &Service{cfg: cfg, log: logg}

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	svc.Store = st
	if closer, ok := st.(interface{ Close() error }); ok {
		svc.closers = append(svc.closers, closer.Close)
	}

	opts := cfg.Retry.Options()
	resolver := availability.NewResolver(st, opts)
	assigner, err := scheduling.NewAssigner(st, resolver, opts, logg)
	if err != nil {
		return nil, fmt.Errorf("assigner: %w", err)
	}
	svc.Assigner = assigner

	generator, err := slotgen.NewGenerator(st, opts, logg)
	if err != nil {
		return nil, fmt.Errorf("slot generator: %w", err)
	}
	svc.Generator = generator

	sink, err := metrics.NewSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	logStore, err := openRunLog(cfg.RunLog)
	if err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}
	svc.runlog = logStore
	svc.closers = append(svc.closers, logStore.Close)

	svc.bus = eventbus.New()
	scheduler := scheduling.NewScheduler(st, assigner, resolver, opts, logg)
	scheduler.SetSink(sink)
	scheduler.SetBus(svc.bus)
	scheduler.SetRunLog(logStore)
	svc.Scheduler = scheduler

	if cfg.Notifier.Enabled {
		pub, err := notify.NewPahoPublisher(cfg.Notifier.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		svc.notifier = pub
		svc.closers = append(svc.closers, pub.Close)
	}
	return svc, nil
}

func openStore(cfg config.StoreConfig) (fullStore, error) {
	switch cfg.Driver {
	case "memory":
		return memstore.New(), nil
	case "sqlite":
		st, err := sqlitestore.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %s", cfg.Driver)
	}
}

func openRunLog(cfg config.RunLogConfig) (runlog.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return runlog.NewSQLiteStore(cfg.Path)
	default:
		if cfg.MaxSizeMB > 0 {
			return runlog.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return runlog.NewJSONLStore(cfg.Path)
	}
}

// ScheduleDay runs one batch scheduling pass for the date.
func (s *Service) ScheduleDay(ctx context.Context, date string) (scheduling.BatchResult, error) {
	s.log.Auditf("schedule.batch", date, nil)
	return s.Scheduler.ScheduleDay(ctx, date)
}

// GenerateSlots writes the slot grid for the date range using the configured
// business hours.
func (s *Service) GenerateSlots(ctx context.Context, from, to string) (int, error) {
	s.log.Auditf("slots.generate", from+".."+to, nil)
	return s.Generator.GenerateRange(ctx, from, to, slotgen.Options{
		StartHour: s.cfg.Scheduler.SlotStartHour,
		EndHour:   s.cfg.Scheduler.SlotEndHour,
	})
}

// Run starts the HTTP API, the Prometheus endpoint and the notifier bridge,
// then blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.notifier != nil {
		go corenotify.Forward(ctx, s.bus, s.notifier, func(err error) {
			s.log.Errorf("notify error: %v", err)
		})
	}
	go s.auditEvents(ctx)

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/api/runs/trigger", runs.NewTriggerHandler(s, s.cfg.HTTP.Token, s.cfg.HTTP.Detail, s.log))
	mux.Handle("/api/runs", runs.NewQueryHandler(s.runlog, s.cfg.HTTP.Token))
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Infof("listening on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// auditEvents mirrors bus events into the audit trail.
func (s *Service) auditEvents(ctx context.Context) {
	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case events.AssignmentEvent:
				s.log.Auditf("schedule.assign", e.Schedule.ID, map[string]any{
					"run_id":     e.RunID,
					"individual": e.Schedule.IndividualID,
					"department": e.Schedule.DepartmentID,
					"time_slot":  e.Schedule.TimeSlotID,
					"tier":       e.Tier.String(),
				})
			case events.BatchCompletedEvent:
				s.log.Auditf("schedule.batch_completed", e.RunID, map[string]any{
					"date":            e.Date,
					"successes":       e.Successes,
					"failures":        e.Failures,
					"total_processed": e.TotalProcessed,
				})
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
