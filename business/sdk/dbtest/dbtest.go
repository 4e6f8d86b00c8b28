// Package dbtest builds an in-memory business domain for tests.
package dbtest

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/memstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
)

// Clock is a settable clock shared by the stores and the code under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current frozen time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Database owns the in-memory state for a test.
type Database struct {
	Log       *logger.Logger
	DB        *memstore.DB
	BusDomain busdomain.BusDomain
	Clock     *Clock
}

// New builds a fresh database whose clock starts at now. Log output is
// printed only when the test fails.
func New(t *testing.T, now time.Time) *Database {
	t.Helper()

	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelDebug, "TEST", func(context.Context) string { return "00000000-0000-0000-0000-000000000000" })

	t.Cleanup(func() {
		if t.Failed() {
			fmt.Println("******************** LOGS ********************")
			fmt.Print(buf.String())
			fmt.Println("******************** LOGS ********************")
		}
	})

	db, err := memstore.NewDB(busdomain.Kinds...)
	if err != nil {
		t.Fatalf("memstore: %s", err)
	}

	clock := &Clock{now: now}

	bd, err := busdomain.New(log, busdomain.MemoryStorers(db), busdomain.Config{
		Clock: clock.Now,
	})
	if err != nil {
		t.Fatalf("busdomain: %s", err)
	}

	return &Database{
		Log:       log,
		DB:        db,
		BusDomain: bd,
		Clock:     clock,
	}
}
