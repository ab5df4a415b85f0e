package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/store"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BulkIngestor upserts fixture datasets into a store using a worker pool.
type BulkIngestor struct {
	store   store.Store
	workers int
}

// IngestStats counts the records written per collection.
type IngestStats map[string]int

// NewBulkIngestor creates a new BulkIngestor instance with the provided concurrency.
func NewBulkIngestor(st store.Store, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{
		store:   st,
		workers: workers,
	}
}

// IngestDataset writes every collection of ds. Collections are processed one after another so
// that referenced entities (users, products) exist before the ones pointing at them; records
// within a collection are written concurrently. Existing ids are overwritten.
func (bi *BulkIngestor) IngestDataset(ctx context.Context, ds fixture.Dataset) (IngestStats, error) {
	stats := IngestStats{}
	steps := []struct {
		name  string
		count int
		fn    func() error
	}{
		{store.CollectionUsers, len(ds.Users), func() error { return ingest(ctx, bi, bi.store.Users(), ds.Users) }},
		{store.CollectionCategories, len(ds.Categories), func() error { return ingest(ctx, bi, bi.store.Categories(), ds.Categories) }},
		{store.CollectionProducts, len(ds.Products), func() error { return ingest(ctx, bi, bi.store.Products(), ds.Products) }},
		{store.CollectionPromotions, len(ds.Promotions), func() error { return ingest(ctx, bi, bi.store.Promotions(), ds.Promotions) }},
		{store.CollectionOrders, len(ds.Orders), func() error { return ingest(ctx, bi, bi.store.Orders(), ds.Orders) }},
		{store.CollectionDisputes, len(ds.Disputes), func() error { return ingest(ctx, bi, bi.store.Disputes(), ds.Disputes) }},
		{store.CollectionKYC, len(ds.KYC), func() error { return ingest(ctx, bi, bi.store.KYC(), ds.KYC) }},
		{store.CollectionReviews, len(ds.Reviews), func() error { return ingest(ctx, bi, bi.store.Reviews(), ds.Reviews) }},
		{store.CollectionPayouts, len(ds.Payouts), func() error { return ingest(ctx, bi, bi.store.Payouts(), ds.Payouts) }},
		{store.CollectionPages, len(ds.Pages), func() error { return ingest(ctx, bi, bi.store.Pages(), ds.Pages) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return stats, fmt.Errorf("ingest %s: %w", step.name, err)
		}
		stats[step.name] = step.count
	}
	return stats, nil
}

func ingest[T domain.Entity](ctx context.Context, bi *BulkIngestor, coll store.Collection[T], items []T) error {
	return bi.run(ctx, len(items), func(idx int) error {
		if _, err := Upsert(ctx, coll, items[idx]); err != nil {
			return fmt.Errorf("%s: %w", items[idx].EntityID(), err)
		}
		return nil
	})
}

func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)
	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
