package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"romkeeper/internal/catalog"
	"romkeeper/internal/config"
	"romkeeper/internal/logging"
	"romkeeper/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withRunner opens the catalog and hands the callback a ready workflow
// runner. The store, and with it the session lock, is released when the
// callback returns.
func (c *commandContext) withRunner(fn func(*workflow.Runner, *catalog.Store, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(workflow.NewRunner(cfg, store, logger), store, logger)
}

// runWorkflow wires SIGINT/SIGTERM into token cancellation, renders
// progress while the workflow runs, and prints the result summary.
func runWorkflow(run func(*workflow.Token) (*workflow.Result, error)) error {
	token := workflow.NewToken(context.Background())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		<-signals
		token.Cancel()
	}()

	done := make(chan struct{})
	go func() {
		renderProgress(token.Progress())
		close(done)
	}()

	result, err := run(token)
	<-done
	if result != nil {
		printResult(result)
	}
	if err != nil {
		return err
	}
	// A cancelled run still returns its partial result; surface the
	// interruption through the exit status.
	if token.Cancelled() {
		return workflow.ErrCancelled
	}
	return nil
}
