package orderprocessor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/medorders/internal/logger"
	"github.com/nkiryanov/medorders/internal/models"
)

type orderService interface {
	FetchMedicalEquipmentOrders(ctx context.Context) ([]models.Order, error)
	ProcessOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	SendAlertAndUpdateOrder(ctx context.Context, order *models.Order)
}

type recorder interface {
	OrderProcessed()
	RunFinished(err error, duration time.Duration)
}

// Result of a single run. Err is informational, it is already logged
type Result struct {
	RunID  uuid.UUID
	Orders int
	Err    error
}

type Processor struct {
	orderService orderService
	logger       logger.Logger
	metrics      recorder
}

func New(orderService orderService, l logger.Logger, metrics recorder) *Processor {
	return &Processor{
		orderService: orderService,
		logger:       l,
		metrics:      metrics,
	}
}

// ProcessOrders makes one full run: fetch all orders, then process and push them one by one.
// First error aborts the rest of the orders and is logged once
func (p *Processor) ProcessOrders(ctx context.Context) Result {
	res := Result{RunID: uuid.New()}
	l := p.logger.With("run_id", res.RunID.String())
	start := time.Now()

	res.Orders, res.Err = p.run(ctx, l)
	p.metrics.RunFinished(res.Err, time.Since(start))

	if res.Err != nil {
		l.Error("An error occurred while processing orders", "error", res.Err, "orders_done", res.Orders)
		return res
	}

	l.Info("Results sent to relevant APIs", "orders", res.Orders, "duration", time.Since(start))
	return res
}

func (p *Processor) run(ctx context.Context, l logger.Logger) (int, error) {
	orders, err := p.orderService.FetchMedicalEquipmentOrders(ctx)
	if err != nil {
		return 0, err
	}
	l.Debug("Orders fetched", "orders", len(orders))

	done := 0
	for i := range orders {
		updated, err := p.orderService.ProcessOrder(ctx, &orders[i])
		if err != nil {
			return done, err
		}

		p.orderService.SendAlertAndUpdateOrder(ctx, updated)
		p.metrics.OrderProcessed()
		done++
	}

	return done, nil
}
