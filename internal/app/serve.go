package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/cdt-guardian/internal/scheduler"
	"github.com/ogulcanaydogan/cdt-guardian/internal/server"
)

// Scheduler builds a scheduler with the configured check and daily jobs.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	loc, err := a.Config.Location()
	if err != nil {
		return nil, err
	}

	s := scheduler.New(a.Logger, loc)
	jobs := []scheduler.Job{
		{
			Name: JobCheck,
			Spec: a.Config.Schedule.Check,
			Run: func(ctx context.Context) error {
				_, err := a.RunCheck(ctx)
				return err
			},
		},
		{
			Name: JobDaily,
			Spec: a.Config.Schedule.Daily,
			Run: func(ctx context.Context) error {
				a.RunDigest(ctx)
				return nil
			},
		},
	}
	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// HTTPServer builds the HTTP server for the configured listen address.
func (a *App) HTTPServer() *http.Server {
	api := server.NewServer(a, a.Config.Monitor.LogPath, a.Metrics, a.Logger)
	return &http.Server{
		Addr:         a.Config.Server.Listen,
		Handler:      api.Handler(),
		ReadTimeout:  duration(a.Config.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: duration(a.Config.Server.WriteTimeout, 60*time.Second),
	}
}

// Serve runs the HTTP server and the scheduler until ctx is cancelled or
// either fails.
func (a *App) Serve(ctx context.Context) error {
	sched, err := a.Scheduler()
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}
	srv := a.HTTPServer()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Serve(ctx, srv, a.Logger) })
	g.Go(func() error { return sched.Run(ctx) })
	return g.Wait()
}

// Schedule runs only the scheduler until ctx is cancelled.
func (a *App) Schedule(ctx context.Context) error {
	sched, err := a.Scheduler()
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}
	return sched.Run(ctx)
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
