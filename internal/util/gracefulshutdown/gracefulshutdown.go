/*
Copyright 2024 Alexandre Mahdhaoui

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package gracefulshutdown turns SIGINT and SIGTERM into a context cancellation and
// delays the process exit until the work started with Run has returned.
package gracefulshutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// ExitCodeInterrupted is the exit code used when a signal ended the process.
const ExitCodeInterrupted = 130

// GracefulShutdown holds the signal-bound context of a process.
type GracefulShutdown struct {
	ctx    context.Context
	cancel context.CancelFunc
	name   string

	once         sync.Once
	shuttingDown atomic.Bool
	wg           sync.WaitGroup

	// exitFunc allows injecting exit behavior for testing
	exitFunc func(int)
}

// New returns a GracefulShutdown whose context is canceled by SIGTERM or SIGINT.
func New(name string) *GracefulShutdown {
	return NewWithExit(name, os.Exit)
}

// NewWithExit is New with a custom exit function, for tests.
func NewWithExit(name string, exitFunc func(int)) *GracefulShutdown {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)

	gs := &GracefulShutdown{
		ctx:      ctx,
		cancel:   cancel,
		name:     name,
		exitFunc: exitFunc,
	}

	go func() {
		<-ctx.Done()

		if gs.shuttingDown.Load() {
			return
		}

		slog.Info("interrupted, waiting for the current work to stop", "name", gs.name)
	}()

	return gs
}

// Context returns the context canceled on SIGTERM, SIGINT or Shutdown.
func (s *GracefulShutdown) Context() context.Context {
	return s.ctx
}

// Run calls fn with the shutdown context, then exits with the code fn returned, or
// with ExitCodeInterrupted if a signal canceled the context meanwhile.
func (s *GracefulShutdown) Run(fn func(ctx context.Context) int) {
	s.wg.Add(1)
	code := fn(s.ctx)
	s.wg.Done()

	if s.ctx.Err() != nil && !s.shuttingDown.Load() {
		code = ExitCodeInterrupted
	}

	s.Shutdown(code)
}

// Shutdown cancels the context, waits for Run to return and exits with exitCode.
// Only the first call has any effect.
func (s *GracefulShutdown) Shutdown(exitCode int) {
	s.once.Do(func() {
		s.shuttingDown.Store(true)
		s.cancel()
		s.wg.Wait()
		s.exitFunc(exitCode)
	})
}
