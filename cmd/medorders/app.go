package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/medorders/internal/logger"
	"github.com/nkiryanov/medorders/internal/metrics"
	"github.com/nkiryanov/medorders/internal/service/order"
	"github.com/nkiryanov/medorders/internal/service/orderprocessor"
	"github.com/nkiryanov/medorders/internal/service/upstream"
)

const (
	metricsJob         = "medorders"
	metricsPushTimeout = 5 * time.Second
)

type BatchApp struct {
	PushgatewayURL string

	Processor *orderprocessor.Processor
	Metrics   *metrics.Metrics
	Logger    logger.Logger
}

func NewBatchApp(c *Config) (*BatchApp, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	m := metrics.New()

	// Initialize services
	httpClient := &http.Client{Transport: upstream.LoggingTransport(http.DefaultTransport, logger)}
	client := upstream.NewClient(c.Upstream(), httpClient, logger)
	orderService := order.NewService(client, logger, m)
	processor := orderprocessor.New(orderService, logger, m)

	return &BatchApp{
		PushgatewayURL: c.PushgatewayURL,
		Processor:      processor,
		Metrics:        m,
		Logger:         logger,
	}, nil
}

// Run processes orders once and pushes metrics if Pushgateway configured.
// Failures of the batch itself are logged by the processor and not returned
func (a *BatchApp) Run(ctx context.Context) orderprocessor.Result {
	a.Logger.Info("Starting orders processing")
	res := a.Processor.ProcessOrders(ctx)

	if a.PushgatewayURL != "" {
		// Push even if the run was interrupted
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsPushTimeout)
		defer cancel()

		if err := a.Metrics.Push(pushCtx, a.PushgatewayURL, metricsJob); err != nil {
			a.Logger.Warn("Failed to push metrics", "error", err)
		}
	}

	return res
}
