package main

import (
	"context"
	"fmt"
	"sync"

	"brief-agent/internal/domain"
)

// dryRunQueue stands in for the jobs API. An order counts as rendered once
// its status has been asked for.
type dryRunQueue struct {
	mu      sync.Mutex
	next    int
	pending map[string]domain.Brief
	polled  map[string]bool
}

func newDryRunQueue() *dryRunQueue {
	return &dryRunQueue{
		pending: map[string]domain.Brief{},
		polled:  map[string]bool{},
	}
}

func (q *dryRunQueue) Enqueue(_ context.Context, brief domain.Brief) (domain.JobOrder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ahead := len(q.pending) - len(q.polled)
	q.next++
	orderID := fmt.Sprintf("dry-%04d", q.next)
	q.pending[orderID] = brief
	return domain.JobOrder{
		OrderID:   orderID,
		JobID:     "job-" + orderID,
		QueueSize: &ahead,
	}, nil
}

func (q *dryRunQueue) Search(_ context.Context, _, orderID string) ([]domain.Asset, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[orderID]; !ok {
		return nil, nil
	}
	if !q.polled[orderID] {
		q.polled[orderID] = true
		return nil, nil
	}
	return []domain.Asset{{
		ID:         "asset-" + orderID,
		OrderID:    orderID,
		PreviewURL: "https://preview.invalid/" + orderID + ".png",
	}}, nil
}
