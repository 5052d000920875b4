package main

import (
	"context"
	"strings"
	"sync"

	"joblin/internal/config"
	"joblin/internal/queue"
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

// withQueue opens a queue for the duration of one command invocation.
func (c *commandContext) withQueue(ctx context.Context, fn func(ctx context.Context, q *queue.Queue) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	q, err := queue.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer q.Close()

	return fn(ctx, q)
}
