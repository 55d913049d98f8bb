package db

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite"
	"pgregory.net/rapid"
)

var errBusy = errors.New("database is locked (5) (SQLITE_BUSY)")

func TestDBQueueRetry_Property(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	queue := NewDBQueueForTest(db)
	defer queue.Close()

	rapid.Check(t, func(t *rapid.T) {
		failUntil := rapid.IntRange(0, 4).Draw(t, "failUntil")
		expectedData := rapid.Int().Draw(t, "expectedData")

		var attempts int32

		task := func(_ *sql.DB) (interface{}, error) {
			attempt := int(atomic.AddInt32(&attempts, 1))
			if attempt <= failUntil {
				return nil, errBusy
			}
			return expectedData, nil
		}

		result, err := queue.Execute(context.Background(), task)

		actualAttempts := int(atomic.LoadInt32(&attempts))

		if failUntil >= 3 {
			if err == nil {
				t.Fatalf("expected error after 3 retries, got nil")
			}
			if actualAttempts != 3 {
				t.Fatalf("expected exactly 3 attempts, got %d", actualAttempts)
			}
		} else {
			if err != nil {
				t.Fatalf("expected success, got error: %v", err)
			}
			if result != expectedData {
				t.Fatalf("expected data %v, got %v", expectedData, result)
			}
			expectedAttempts := failUntil + 1
			if actualAttempts != expectedAttempts {
				t.Fatalf("expected %d attempts, got %d", expectedAttempts, actualAttempts)
			}
		}
	})
}

func TestDBQueueDoesNotRetryDomainErrors(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	queue := NewDBQueueForTest(db)
	defer queue.Close()

	domainErr := errors.New("step locked")
	var attempts int32
	_, err = queue.Execute(context.Background(), func(_ *sql.DB) (interface{}, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, domainErr
	})
	if !errors.Is(err, domainErr) {
		t.Fatalf("Expected domain error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("Expected a single attempt, got %d", attempts)
	}
}

func TestDBQueueCancelledContext(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	queue := NewDBQueueForTest(db)
	defer queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	_, err = queue.Execute(ctx, func(_ *sql.DB) (interface{}, error) {
		atomic.AddInt32(&ran, 1)
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}
