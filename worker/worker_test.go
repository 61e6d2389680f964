package worker_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/worker"
	"github.com/marcelsud/webhook-dispatch/worker/mocks"
)

var fastPolling = worker.WithBackoff(time.Millisecond, 5*time.Millisecond)

func delivery(id, dest string) webhook.Delivery {
	return webhook.Delivery{ID: id, DestinationID: dest, Kind: webhook.Raw, Status: webhook.Pending}
}

func TestWorker_ProcessesAndAcknowledges(t *testing.T) {
	queue := mocks.NewQueue(t)
	processor := mocks.NewProcessor(t)
	heartbeater := mocks.NewHeartbeater(t)

	done := make(chan string, 2)
	queue.On("Consume", mock.Anything, "crm").Return([]webhook.Delivery{delivery("d-1", "crm")}, nil).Once()
	queue.On("Consume", mock.Anything, "crm").Return([]webhook.Delivery{delivery("d-2", "crm")}, nil).Once()
	queue.On("Consume", mock.Anything, "crm").Return([]webhook.Delivery{}, nil).Maybe()
	processor.On("Process", mock.Anything, mock.Anything).Return(nil).Twice()
	queue.On("Acknowledge", mock.Anything, "crm", mock.Anything).
		Run(func(args mock.Arguments) { done <- args.String(2) }).
		Return(nil).Twice()
	heartbeater.On("SetWorkerHeartbeat", mock.Anything, "w-1", "crm", mock.Anything).Return(nil)

	w := worker.NewWorker("w-1", "crm", queue, processor, fastPolling, worker.WithHeartbeater(heartbeater))
	w.Start(context.Background())

	assert.Equal(t, "d-1", waitFor(t, done))
	assert.Equal(t, "d-2", waitFor(t, done))

	w.Stop()
	w.Wait()

	processor.AssertCalled(t, "Process", mock.Anything, webhook.MatchDelivery(func(d webhook.Delivery) bool { return d.ID == "d-1" }))
	heartbeater.AssertCalled(t, "SetWorkerHeartbeat", mock.Anything, "w-1", "crm", worker.StatusProcessing)
	heartbeater.AssertCalled(t, "SetWorkerHeartbeat", mock.Anything, "w-1", "crm", worker.StatusIdle)
}

func TestWorker_AcknowledgesFailedProcessing(t *testing.T) {
	queue := mocks.NewQueue(t)
	processor := mocks.NewProcessor(t)

	done := make(chan string, 1)
	queue.On("Consume", mock.Anything, "crm").Return([]webhook.Delivery{delivery("d-1", "crm")}, nil).Once()
	queue.On("Consume", mock.Anything, "crm").Return([]webhook.Delivery{}, nil).Maybe()
	processor.On("Process", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
	queue.On("Acknowledge", mock.Anything, "crm", "d-1").
		Run(func(args mock.Arguments) { done <- args.String(2) }).
		Return(nil).Once()

	w := worker.NewWorker("w-1", "crm", queue, processor, fastPolling)
	w.Start(context.Background())

	assert.Equal(t, "d-1", waitFor(t, done))
	w.Stop()
	w.Wait()
}

func TestWorker_SurvivesConsumeErrors(t *testing.T) {
	queue := mocks.NewQueue(t)
	processor := mocks.NewProcessor(t)

	done := make(chan string, 1)
	queue.On("Consume", mock.Anything, "crm").Return(nil, errors.New("connection refused")).Twice()
	queue.On("Consume", mock.Anything, "crm").Return([]webhook.Delivery{delivery("d-1", "crm")}, nil).Once()
	queue.On("Consume", mock.Anything, "crm").Return([]webhook.Delivery{}, nil).Maybe()
	processor.On("Process", mock.Anything, mock.Anything).Return(nil).Once()
	queue.On("Acknowledge", mock.Anything, "crm", "d-1").
		Run(func(args mock.Arguments) { done <- args.String(2) }).
		Return(nil).Once()

	w := worker.NewWorker("w-1", "crm", queue, processor, fastPolling)
	w.Start(context.Background())

	assert.Equal(t, "d-1", waitFor(t, done))
	w.Stop()
	w.Wait()
}

func TestWorker_ExitsOnContextCancel(t *testing.T) {
	queue := mocks.NewQueue(t)
	queue.On("Consume", mock.Anything, "crm").Return([]webhook.Delivery{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewWorker("w-1", "crm", queue, mocks.NewProcessor(t), fastPolling)
	w.Start(ctx)
	cancel()

	exited := make(chan struct{})
	go func() {
		w.Wait()
		close(exited)
	}()
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after cancel")
	}
}

func TestPool(t *testing.T) {
	t.Run("starts one worker per destination and follows the registry", func(t *testing.T) {
		lister := mocks.NewLister(t)
		queue := mocks.NewQueue(t)

		lister.On("List", mock.Anything).Return([]destination.Destination{{ID: "a"}, {ID: "b"}}, nil).Once()
		lister.On("List", mock.Anything).Return([]destination.Destination{{ID: "b"}, {ID: "c"}}, nil).Maybe()
		queue.On("Consume", mock.Anything, mock.Anything).Return([]webhook.Delivery{}, nil).Maybe()

		pool := worker.NewPool(lister, queue, mocks.NewProcessor(t), fastPolling, worker.WithRefreshInterval(10*time.Millisecond))
		require.NoError(t, pool.Start(context.Background()))

		assert.ElementsMatch(t, []string{"a", "b"}, pool.Workers())
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{"b", "c"}, sorted(pool.Workers()))
		}, time.Second, 5*time.Millisecond)

		pool.Stop()
		assert.Empty(t, pool.Workers())
	})

	t.Run("start fails when the registry is unavailable", func(t *testing.T) {
		lister := mocks.NewLister(t)
		lister.On("List", mock.Anything).Return(nil, errors.New("connection refused")).Once()

		pool := worker.NewPool(lister, mocks.NewQueue(t), mocks.NewProcessor(t))
		err := pool.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing destinations")
	})

	t.Run("stop before start is a no-op", func(t *testing.T) {
		pool := worker.NewPool(mocks.NewLister(t), mocks.NewQueue(t), mocks.NewProcessor(t))
		pool.Stop()
	})
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker")
		return ""
	}
}

func sorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
