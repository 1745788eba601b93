package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mocca-storefront/queue"
	"mocca-storefront/services/email"
)

type fakeSender struct {
	mu      sync.Mutex
	orders  []email.OrderConfirmation
	failed  []email.PaymentFailed
	failErr error
}

func (f *fakeSender) SendEmail(context.Context, string, string, string) error { return nil }

func (f *fakeSender) SendOrderConfirmation(_ context.Context, _ string, data email.OrderConfirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.orders = append(f.orders, data)
	return nil
}

func (f *fakeSender) SendPaymentFailed(_ context.Context, _ string, data email.PaymentFailed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, data)
	return nil
}

func (f *fakeSender) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders), len(f.failed)
}

func newTestWorker(t *testing.T, sender email.EmailSender) (*Worker, *queue.Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q := queue.NewQueueWithClient(client, "mocca:notifications", zap.NewNop())
	w := NewWorker(q, sender, zap.NewNop())
	w.pollTimeout = 100 * time.Millisecond
	w.delayedEvery = 50 * time.Millisecond
	return w, q, mr
}

func TestWorkerDeliversNotifications(t *testing.T) {
	sender := &fakeSender{}
	w, q, mr := newTestWorker(t, sender)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, queue.JobTypeOrderConfirmation, map[string]interface{}{
		"email": "asha@example.com", "name": "Asha", "orderId": "ord_1", "total": "Rs. 999.00",
		"paymentMethod": "Wallet", "paymentStatus": "Completed",
	})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, queue.JobTypePaymentFailed, map[string]interface{}{
		"email": "asha@example.com", "name": "Asha", "total": "Rs. 999.00",
	})
	require.NoError(t, err)

	w.Start(2)
	assert.Eventually(t, func() bool {
		o, f := sender.counts()
		return o == 1 && f == 1
	}, 3*time.Second, 20*time.Millisecond)
	w.Stop()

	assert.Equal(t, "ord_1", sender.orders[0].OrderID)
	assert.False(t, mr.Exists("mocca:notifications:processing"))
}

func TestWorkerSchedulesRetryOnSendFailure(t *testing.T) {
	sender := &fakeSender{failErr: errors.New("smtp unavailable")}
	w, q, mr := newTestWorker(t, sender)

	_, err := q.Enqueue(context.Background(), queue.JobTypeOrderConfirmation, map[string]interface{}{
		"email": "asha@example.com",
	})
	require.NoError(t, err)

	w.Start(1)
	assert.Eventually(t, func() bool {
		return mr.Exists("mocca:notifications:delayed")
	}, 3*time.Second, 20*time.Millisecond)
	w.Stop()

	o, _ := sender.counts()
	assert.Zero(t, o)
}

func TestWorkerDropsJobWithoutRecipient(t *testing.T) {
	w, _, _ := newTestWorker(t, &fakeSender{})
	err := w.processJob(context.Background(), &queue.Job{ID: "j", Type: queue.JobTypePaymentFailed, Data: map[string]interface{}{}})
	assert.NoError(t, err)
}

func TestWorkerRejectsUnknownJobType(t *testing.T) {
	w, _, _ := newTestWorker(t, &fakeSender{})
	err := w.processJob(context.Background(), &queue.Job{ID: "j", Type: "mystery", Data: map[string]interface{}{"email": "a@b.co"}})
	assert.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	w, _, _ := newTestWorker(t, &fakeSender{})
	w.Start(1)
	w.Stop()
	w.Stop()
}

func TestWorkerRestartsAfterStop(t *testing.T) {
	sender := &fakeSender{}
	w, q, _ := newTestWorker(t, sender)
	w.Start(1)
	w.Stop()

	w.Start(1)
	defer w.Stop()
	_, err := q.Enqueue(context.Background(), queue.JobTypePaymentFailed, map[string]interface{}{
		"email": "asha@example.com", "name": "Asha", "total": "Rs. 999.00",
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, f := sender.counts()
		return f == 1
	}, 3*time.Second, 20*time.Millisecond)
}
