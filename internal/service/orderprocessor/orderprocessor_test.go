package orderprocessor

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/medorders/internal/apperrors"
	"github.com/nkiryanov/medorders/internal/logger"
	"github.com/nkiryanov/medorders/internal/metrics"
	"github.com/nkiryanov/medorders/internal/models"
	"github.com/nkiryanov/medorders/internal/service/order"
	"github.com/nkiryanov/medorders/internal/service/upstream"
	"github.com/nkiryanov/medorders/internal/testutil"
)

type fakeService struct {
	orders   []models.Order
	fetchErr error

	// Fail ProcessOrder on the order with the id
	failOn     string
	processErr error

	calls []string
}

func (s *fakeService) FetchMedicalEquipmentOrders(context.Context) ([]models.Order, error) {
	s.calls = append(s.calls, "fetch")
	return s.orders, s.fetchErr
}

func (s *fakeService) ProcessOrder(_ context.Context, o *models.Order) (*models.Order, error) {
	s.calls = append(s.calls, "process:"+o.OrderID)
	if o.OrderID == s.failOn {
		return o, s.processErr
	}
	return o, nil
}

func (s *fakeService) SendAlertAndUpdateOrder(_ context.Context, o *models.Order) {
	s.calls = append(s.calls, "update:"+o.OrderID)
}

func TestProcessor_ProcessOrders(t *testing.T) {
	t.Run("processes orders successfully", func(t *testing.T) {
		svc := &fakeService{orders: []models.Order{{OrderID: "1", Items: []models.Item{}}, {OrderID: "2"}}}
		logs := testutil.NewRecorder()
		m := metrics.New()

		res := New(svc, logs, m).ProcessOrders(t.Context())

		require.NoError(t, res.Err)
		require.Equal(t, 2, res.Orders)
		require.NotEqual(t, uuid.Nil, res.RunID)
		require.Equal(t, []string{"fetch", "process:1", "update:1", "process:2", "update:2"}, svc.calls)

		infos := logs.Containing(logger.LevelInfo, "Results sent to relevant APIs")
		require.Len(t, infos, 1)
		require.Equal(t, res.RunID.String(), infos[0].Value("run_id"))
		require.Empty(t, logs.Level(logger.LevelError))
		require.InDelta(t, 2, prom.ToFloat64(m.OrdersProcessed), 0)
		require.InDelta(t, 1, prom.ToFloat64(m.Runs.WithLabelValues(metrics.ResultSuccess)), 0)
	})

	t.Run("no orders", func(t *testing.T) {
		svc := &fakeService{}
		logs := testutil.NewRecorder()

		res := New(svc, logs, metrics.New()).ProcessOrders(t.Context())

		require.NoError(t, res.Err)
		require.Equal(t, []string{"fetch"}, svc.calls)
		require.Len(t, logs.Containing(logger.LevelInfo, "Results sent to relevant APIs"), 1)
	})

	t.Run("logs error when fetch fails", func(t *testing.T) {
		svc := &fakeService{fetchErr: errors.New("test exception")}
		logs := testutil.NewRecorder()
		m := metrics.New()

		res := New(svc, logs, m).ProcessOrders(t.Context())

		require.Error(t, res.Err)
		require.Equal(t, []string{"fetch"}, svc.calls)
		errs := logs.Containing(logger.LevelError, "An error occurred while processing orders")
		require.Len(t, errs, 1)
		require.Equal(t, svc.fetchErr, errs[0].Value("error"))
		require.Empty(t, logs.Containing(logger.LevelInfo, "Results sent"))
		require.InDelta(t, 1, prom.ToFloat64(m.Runs.WithLabelValues(metrics.ResultFailure)), 0)
	})

	t.Run("error aborts remaining orders", func(t *testing.T) {
		svc := &fakeService{
			orders:     []models.Order{{OrderID: "1"}, {OrderID: "2"}, {OrderID: "3"}},
			failOn:     "2",
			processErr: context.Canceled,
		}
		logs := testutil.NewRecorder()

		res := New(svc, logs, metrics.New()).ProcessOrders(t.Context())

		require.ErrorIs(t, res.Err, context.Canceled)
		require.Equal(t, 1, res.Orders)
		require.Equal(t, []string{"fetch", "process:1", "update:1", "process:2"}, svc.calls)
		require.Len(t, logs.Level(logger.LevelError), 1)
	})
}

func TestProcessor_EndToEnd(t *testing.T) {
	setup := func(t *testing.T) (*testutil.Upstream, *testutil.Recorder, *Processor) {
		u := testutil.StartUpstream(t)
		logs := testutil.NewRecorder()
		m := metrics.New()

		client := upstream.NewClient(upstream.Config{
			OrdersURL: u.BaseURL() + "/orders",
			AlertURL:  u.BaseURL() + "/alerts",
			UpdateURL: u.BaseURL() + "/update",
		}, u.Server.Client(), logs)
		svc := order.NewService(client, logs, m)

		return u, logs, New(svc, logs, m)
	}

	t.Run("delivered item alerted and updated", func(t *testing.T) {
		u, logs, p := setup(t)
		u.SetPages([]models.Order{{
			OrderID: "1",
			Items:   []models.Item{{Description: "Wheelchair", Status: models.ItemStatusDelivered, DeliveryNotification: 0}},
		}})

		res := p.ProcessOrders(t.Context())

		require.NoError(t, res.Err)
		require.Equal(t, []string{
			"Alert for delivered item: Order 1, Item: Wheelchair, Delivery Notifications: 0",
		}, u.Alerts())
		require.Equal(t, []models.Order{{
			OrderID: "1",
			Items:   []models.Item{{Description: "Wheelchair", Status: models.ItemStatusDelivered, DeliveryNotification: 1}},
		}}, u.Updates())
		require.Len(t, logs.Containing(logger.LevelInfo, "Results sent to relevant APIs"), 1)
		require.Empty(t, logs.Level(logger.LevelError), "no errors expected, got %v", logs.Level(logger.LevelError))
	})

	t.Run("fetch bad request logs one top level error", func(t *testing.T) {
		u, logs, p := setup(t)
		u.SetOrdersStatus(http.StatusBadRequest)

		res := p.ProcessOrders(t.Context())

		require.ErrorIs(t, res.Err, apperrors.ErrFetch)
		require.Len(t, logs.Containing(logger.LevelError, "An error occurred while processing orders"), 1)
		require.Empty(t, u.Alerts())
		require.Empty(t, u.Updates())
	})

	t.Run("failed update does not stop the batch", func(t *testing.T) {
		u, logs, p := setup(t)
		u.SetUpdateStatus(http.StatusBadRequest)
		u.SetPages(
			[]models.Order{{OrderID: "1"}},
			[]models.Order{{OrderID: "2"}},
		)

		res := p.ProcessOrders(t.Context())

		require.NoError(t, res.Err)
		require.Equal(t, 2, res.Orders)
		require.Len(t, u.Updates(), 2)
		require.Len(t, logs.Containing(logger.LevelError, "Failed to send updated order"), 2)
		require.Len(t, logs.Containing(logger.LevelInfo, "Results sent to relevant APIs"), 1)
	})
}
