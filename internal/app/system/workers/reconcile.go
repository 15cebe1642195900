// internal/app/system/workers/reconcile.go

// Package workers holds the app's background loops.
package workers

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RefReconciler is a background worker that prunes dangling region ids from
// users' regions lists. The region store's no-transaction fallback can leave
// an id on an owner when a crash lands between the intent push and the
// insert (or between a delete and its pull); this loop sweeps those up.
type RefReconciler struct {
	db       *mongo.Database
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewRefReconciler creates a reconciler that runs every interval.
func NewRefReconciler(db *mongo.Database, logger *zap.Logger, interval time.Duration) *RefReconciler {
	return &RefReconciler{
		db:       db,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *RefReconciler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("region reference reconciler started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *RefReconciler) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("region reference reconciler stopped")
}

func (w *RefReconciler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep pulls every region id that has no backing region document out of the
// users collection.
func (w *RefReconciler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := w.db.Collection("regions").Distinct(ctx, "_id", bson.M{})
	if err != nil {
		w.log.Error("reconcile: list region ids failed", zap.Error(err))
		return
	}

	res, err := w.db.Collection("users").UpdateMany(ctx,
		bson.M{"regions": bson.M{"$exists": true, "$ne": []any{}}},
		bson.M{"$pull": bson.M{"regions": bson.M{"$nin": ids}}})
	if err != nil {
		w.log.Error("reconcile: pull dangling refs failed", zap.Error(err))
		return
	}
	if res.ModifiedCount > 0 {
		w.log.Info("reconciled dangling region references",
			zap.Int64("users", res.ModifiedCount))
	}
}
