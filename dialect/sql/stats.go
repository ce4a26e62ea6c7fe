package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/sqlbind/dialect"
)

// QueryStats counts the statements executed through a StatsDriver and the
// parameters bound to them. It is safe for concurrent use.
type QueryStats struct {
	queries   atomic.Int64
	execs     atomic.Int64
	params    atomic.Int64
	maxParams atomic.Int64
	duration  atomic.Int64 // nanoseconds
	slow      atomic.Int64
	errors    atomic.Int64
}

// Stats returns a snapshot of the counters.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		Queries:       s.queries.Load(),
		Execs:         s.execs.Load(),
		Parameters:    s.params.Load(),
		MaxParameters: s.maxParams.Load(),
		Duration:      time.Duration(s.duration.Load()),
		Slow:          s.slow.Load(),
		Errors:        s.errors.Load(),
	}
}

// Reset sets all counters to zero.
func (s *QueryStats) Reset() {
	for _, c := range []*atomic.Int64{&s.queries, &s.execs, &s.params, &s.maxParams, &s.duration, &s.slow, &s.errors} {
		c.Store(0)
	}
}

func (s *QueryStats) record(isQuery bool, params int, d time.Duration, slow bool, err error) {
	if isQuery {
		s.queries.Add(1)
	} else {
		s.execs.Add(1)
	}
	n := int64(params)
	s.params.Add(n)
	for {
		cur := s.maxParams.Load()
		if n <= cur || s.maxParams.CompareAndSwap(cur, n) {
			break
		}
	}
	s.duration.Add(int64(d))
	if slow {
		s.slow.Add(1)
	}
	if err != nil {
		s.errors.Add(1)
	}
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Queries       int64
	Execs         int64
	Parameters    int64 // Bound parameters over all statements
	MaxParameters int64 // Most parameters bound to a single statement
	Duration      time.Duration
	Slow          int64
	Errors        int64
}

// Statements returns the number of queries and execs.
func (s StatsSnapshot) Statements() int64 { return s.Queries + s.Execs }

// AvgDuration returns the average statement duration.
func (s StatsSnapshot) AvgDuration() time.Duration {
	if n := s.Statements(); n > 0 {
		return s.Duration / time.Duration(n)
	}
	return 0
}

// AvgParameters returns the average number of parameters per statement.
func (s StatsSnapshot) AvgParameters() float64 {
	if n := s.Statements(); n > 0 {
		return float64(s.Parameters) / float64(n)
	}
	return 0
}

// String implements fmt.Stringer.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d params=%d max_params=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Parameters, s.MaxParameters, s.Duration, s.AvgDuration(), s.Slow, s.Errors,
	)
}

// SlowQuery is a statement that ran longer than the slow threshold.
type SlowQuery struct {
	CommandText string
	Args        []any
	Duration    time.Duration
	Err         error
}

// Params returns the arguments as name=value pairs. Positional arguments are
// named by their ordinal, the way the binder names them.
func (q SlowQuery) Params() []string {
	ps := make([]string, len(q.Args))
	for i, a := range q.Args {
		if n, ok := a.(sql.NamedArg); ok {
			ps[i] = n.Name + "=" + fmt.Sprint(n.Value)
			continue
		}
		ps[i] = "p" + strconv.Itoa(i+1) + "=" + fmt.Sprint(a)
	}
	return ps
}

// SlowQueryHook is called for every slow statement.
type SlowQueryHook func(ctx context.Context, q SlowQuery)

// StatsDriver wraps a Driver and records QueryStats for every statement.
type StatsDriver struct {
	*Driver
	stats *QueryStats

	mu            sync.RWMutex
	slowThreshold time.Duration
	slowHook      SlowQueryHook
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement is slow.
// The default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets the function called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements with their bound parameters on the
// default logger.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, q SlowQuery) {
		attrs := []any{"duration", q.Duration, "command", q.CommandText, "params", q.Params()}
		if q.Err != nil {
			attrs = append(attrs, "error", q.Err)
		}
		slog.WarnContext(ctx, "slow query", attrs...)
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	stats := sql.NewStatsDriver(drv, sql.WithSlowThreshold(200*time.Millisecond), sql.WithSlowQueryLog())
//	people, err := sql.Query[Person](ctx, stats, stats.Select("person"))
//	fmt.Println(stats.QueryStats().Stats())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the counters of the driver.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query implements dialect.ExecQuerier.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec implements dialect.ExecQuerier.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	argv, _ := args.([]any)
	d.mu.RLock()
	threshold, hook := d.slowThreshold, d.slowHook
	d.mu.RUnlock()

	slow := duration > threshold
	d.stats.record(isQuery, len(argv), duration, slow, err)
	if slow && hook != nil {
		hook(ctx, SlowQuery{CommandText: query, Args: argv, Duration: duration, Err: err})
	}
}

// Tx starts a transaction whose statements are recorded on the driver.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx is a transaction of a StatsDriver.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query implements dialect.ExecQuerier.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, true)
	return err
}

// Exec implements dialect.ExecQuerier.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, false)
	return err
}

// DebugDriver wraps a Driver with debug logging. Every statement is logged
// with a random statement id, and the transaction id is repeated on the
// statements executed within a transaction.
type DebugDriver struct {
	*Driver
	log func(ctx context.Context, msg string, attrs ...any)
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog sets a custom log function.
func DebugWithLog(logFunc func(ctx context.Context, msg string, attrs ...any)) DebugOption {
	return func(d *DebugDriver) {
		d.log = logFunc
	}
}

// DebugWithLogger logs statements at debug level on the given logger.
func DebugWithLogger(l *slog.Logger) DebugOption {
	return DebugWithLog(l.DebugContext)
}

// NewDebugDriver wraps a Driver with debug logging. By default statements
// are logged at info level on the default slog logger.
//
// Example:
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	debugDriver := sql.NewDebugDriver(drv, sql.DebugWithLogger(logger))
func NewDebugDriver(drv *Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log:    slog.InfoContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query executes a query and logs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log(ctx, "query", "id", uuid.NewString(), "query", query, "args", args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec executes a statement and logs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log(ctx, "exec", "id", uuid.NewString(), "query", query, "args", args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	id := uuid.NewString()
	d.log(ctx, "begin transaction", "tx", id)
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, id: id, log: d.log}, nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	dialect.Tx
	id  string
	log func(ctx context.Context, msg string, attrs ...any)
}

// Query executes a query within the transaction and logs it.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, "tx query", "tx", tx.id, "id", uuid.NewString(), "query", query, "args", args)
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec executes a statement within the transaction and logs it.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, "tx exec", "tx", tx.id, "id", uuid.NewString(), "query", query, "args", args)
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.log(context.Background(), "commit transaction", "tx", tx.id)
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.log(context.Background(), "rollback transaction", "tx", tx.id)
	return tx.Tx.Rollback()
}

// Ensure interfaces are implemented.
var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)

// OpenWithStats opens a database connection with statistics collection enabled.
//
// Example:
//
//	drv, stats, err := sql.OpenWithStats(dialect.Postgres, dsn,
//	    sql.WithSlowThreshold(100*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Monitor statistics periodically
//	go func() {
//	    for range time.Tick(time.Minute) {
//	        slog.Info("query stats", "stats", stats.Stats())
//	    }
//	}()
func OpenWithStats(dialectName, source string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	drv, err := Open(dialectName, source)
	if err != nil {
		return nil, nil, err
	}
	statsDriver := NewStatsDriver(drv, opts...)
	return statsDriver, statsDriver.QueryStats(), nil
}
