package order

import (
	"context"
	"fmt"

	"github.com/nkiryanov/medorders/internal/apperrors"
	"github.com/nkiryanov/medorders/internal/logger"
	"github.com/nkiryanov/medorders/internal/models"
)

type upstreamClient interface {
	OrdersURL() string
	GetOrdersPage(ctx context.Context, url string) (models.OrdersPage, error)
	PostAlert(ctx context.Context, message string) error
	PostOrderUpdate(ctx context.Context, order models.Order) error
}

type recorder interface {
	PageFetched()
	AlertSent(err error)
	UpdateSent(err error)
}

type OrderService struct {
	client  upstreamClient
	logger  logger.Logger
	metrics recorder
}

func NewService(client upstreamClient, l logger.Logger, metrics recorder) *OrderService {
	return &OrderService{
		client:  client,
		logger:  l,
		metrics: metrics,
	}
}

// FetchMedicalEquipmentOrders follows orders pages until there is no next one.
// Any failed page fails the whole fetch, no partial results returned
func (s *OrderService) FetchMedicalEquipmentOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order

	url := s.client.OrdersURL()
	visited := make(map[string]struct{})

	for {
		if _, ok := visited[url]; ok {
			s.logger.Error("Orders pagination loops", "url", url, "pages", len(visited))
			return nil, fmt.Errorf("%w: %w: %s", apperrors.ErrFetch, apperrors.ErrPageCycle, url)
		}
		visited[url] = struct{}{}

		page, err := s.client.GetOrdersPage(ctx, url)
		if err != nil {
			s.logger.Error("Failed to fetch orders from API", "url", url, "error", err)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrFetch, err)
		}
		s.metrics.PageFetched()

		orders = append(orders, page.Orders...)

		next, ok := page.Next()
		if !ok {
			break
		}
		url = next
	}

	s.logger.Debug("Orders fetched", "orders", len(orders), "pages", len(visited))
	return orders, nil
}

// ProcessOrder sends alert for every delivered item and counts it in the item notifications.
// Alerts are best effort: a failed one does not stop the rest.
// The order is changed in place and returned back
func (s *OrderService) ProcessOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if len(order.Items) == 0 {
		s.logger.Info("Order does not contain any items", "order_id", order.OrderID)
		return order, nil
	}

	for i := range order.Items {
		item := &order.Items[i]
		if !item.IsDelivered() {
			continue
		}

		if err := ctx.Err(); err != nil {
			s.logger.Error("An error occurred while processing the order", "order_id", order.OrderID, "error", err)
			return order, err
		}

		s.SendAlertMessage(ctx, *item, order.OrderID)
		item.DeliveryNotification++
	}

	return order, nil
}

// SendAlertMessage posts alert for the delivered item. Failures are logged only
func (s *OrderService) SendAlertMessage(ctx context.Context, item models.Item, orderID string) {
	message := fmt.Sprintf(
		"Alert for delivered item: Order %s, Item: %s, Delivery Notifications: %d",
		orderID, item.Description, item.DeliveryNotification,
	)

	err := s.client.PostAlert(ctx, message)
	s.metrics.AlertSent(err)
	if err != nil {
		s.logger.Error(
			"Failed to send alert for delivered item",
			"order_id", orderID,
			"description", item.Description,
			"error", fmt.Errorf("%w: %w", apperrors.ErrAlertDispatch, err),
		)
		return
	}

	s.logger.Info("Alert sent for delivered item", "order_id", orderID, "description", item.Description)
}

// SendAlertAndUpdateOrder pushes the order to the update API. Failures are logged only
func (s *OrderService) SendAlertAndUpdateOrder(ctx context.Context, order *models.Order) {
	err := s.client.PostOrderUpdate(ctx, *order)
	s.metrics.UpdateSent(err)
	if err != nil {
		s.logger.Error(
			"Failed to send updated order for processing",
			"order_id", order.OrderID,
			"error", fmt.Errorf("%w: %w", apperrors.ErrUpdateDispatch, err),
		)
		return
	}

	s.logger.Info("Updated order sent for processing", "order_id", order.OrderID)
}
