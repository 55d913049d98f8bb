package db

import (
	"context"
	"database/sql"
	"time"
)

type DBTask struct {
	Ctx  context.Context
	Exec func(*sql.DB) (interface{}, error)
	Resp chan DBResult
}

type DBResult struct {
	Data interface{}
	Err  error
}

// DBQueue runs every database task on a single worker goroutine, which
// serializes all reads and writes against the sqlite file.
type DBQueue struct {
	tasks      chan DBTask
	db         *sql.DB
	maxRetry   int
	retryDelay time.Duration
	testMode   bool
}

func NewDBQueue(db *sql.DB) *DBQueue {
	q := &DBQueue{
		tasks:      make(chan DBTask, 100),
		db:         db,
		maxRetry:   3,
		retryDelay: 100 * time.Millisecond,
		testMode:   false,
	}
	go q.worker()
	return q
}

func NewDBQueueForTest(db *sql.DB) *DBQueue {
	q := &DBQueue{
		tasks:      make(chan DBTask, 100),
		db:         db,
		maxRetry:   3,
		retryDelay: 1 * time.Millisecond,
		testMode:   true,
	}
	go q.worker()
	return q
}

// Execute enqueues task and waits for its result. Only sqlite busy/locked
// errors are retried; every other error is returned as is.
func (q *DBQueue) Execute(ctx context.Context, task func(*sql.DB) (interface{}, error)) (interface{}, error) {
	resp := make(chan DBResult, 1)
	select {
	case q.tasks <- DBTask{Ctx: ctx, Exec: task, Resp: resp}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-resp:
		return result.Data, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *DBQueue) worker() {
	for task := range q.tasks {
		if err := task.Ctx.Err(); err != nil {
			task.Resp <- DBResult{Err: err}
			continue
		}
		task.Resp <- q.executeWithRetry(task)
	}
}

func (q *DBQueue) executeWithRetry(task DBTask) DBResult {
	var lastErr error
	for attempt := 0; attempt < q.maxRetry; attempt++ {
		data, err := task.Exec(q.db)
		if err == nil {
			return DBResult{Data: data, Err: nil}
		}
		lastErr = err
		if !IsBusy(err) {
			break
		}

		if attempt < q.maxRetry-1 {
			if q.testMode {
				time.Sleep(q.retryDelay)
			} else {
				time.Sleep(time.Duration(attempt+1) * q.retryDelay)
			}
		}
	}
	return DBResult{Err: lastErr}
}

func (q *DBQueue) Close() {
	close(q.tasks)
}

func (q *DBQueue) DB() *sql.DB {
	return q.db
}

// WithTx runs fn in a transaction on the worker goroutine.
func (q *DBQueue) WithTx(ctx context.Context, fn func(tx *sql.Tx) (interface{}, error)) (interface{}, error) {
	return q.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		data, err := fn(tx)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return data, nil
	})
}
