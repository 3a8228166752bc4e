package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// SQLiteStore implements Store on an embedded SQLite database. It backs
// single-node deployments and the test suites.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path. Pass ":memory:"
// for an in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and avoids
	// "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pending embedded migrations, each in its own transaction.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	versions, err := migrationFiles("migrations/sqlite")
	if err != nil {
		return err
	}

	for _, version := range versions {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?1", version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %s: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/sqlite/" + version)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", version, err)
		}

		err = s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("applying migration %s: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?1, ?2)",
				version, micros(s.now()),
			); err != nil {
				return fmt.Errorf("recording migration %s: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// AppliedMigrations returns the recorded migration versions in order.
func (s *SQLiteStore) AppliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpsertProduct inserts a product or refreshes the descriptive fields of the
// existing row with the same (store, store_ref).
func (s *SQLiteStore) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Availability == "" {
		p.Availability = domain.AvailabilityUnknown
	}

	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, sqliteUpsertProduct,
		p.ID, p.CanonicalName, p.Store, p.StoreRef, p.URL, p.ImageURL, p.Description,
		p.Currency, string(p.Availability), seconds(p.PollInterval), micros(s.now()),
	).Scan(&p.ID, &createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("upserting product: %w", err)
	}
	p.CreatedAt = fromMicros(createdAt)
	p.UpdatedAt = fromMicros(updatedAt)
	return nil
}

// GetProduct retrieves a product by its ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct(ctx, sqliteGetProduct, id)
}

// FindProductByRef retrieves a product by its store identity.
func (s *SQLiteStore) FindProductByRef(ctx context.Context, store, storeRef string) (*domain.Product, error) {
	return s.getProduct(ctx, sqliteFindProductByRef, store, storeRef)
}

func (s *SQLiteStore) getProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	p := &domain.Product{}
	if err := scanSQLiteProduct(s.db.QueryRowContext(ctx, query, args...), p); err != nil {
		return nil, sqlNotFound(err)
	}
	return p, nil
}

// ListProductsByStore returns every product of a store.
func (s *SQLiteStore) ListProductsByStore(ctx context.Context, store string) ([]domain.Product, error) {
	return s.queryProducts(ctx, sqliteListProductsByStore, store)
}

// ListProducts queries products with optional filters, returning results and total count.
func (s *SQLiteStore) ListProducts(ctx context.Context, q *ProductQuery) ([]domain.Product, int, error) {
	where, page, args := q.ToSQL(sqlitePlaceholder)

	var total int
	if err := s.db.QueryRowContext(ctx, sqliteCountProductsBase+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	products, err := s.queryProducts(ctx, sqliteListProductsBase+where+page, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *SQLiteStore) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanSQLiteProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// RecordProductSuccess stores the latest price and clears failure tracking.
func (s *SQLiteStore) RecordProductSuccess(ctx context.Context, id string, obs *domain.PriceObservation) error {
	_, err := s.db.ExecContext(ctx, sqliteRecordProductSuccess,
		id, obs.Price.String(), obs.Currency, string(obs.Availability),
		micros(obs.ObservedAt), micros(s.now()),
	)
	if err != nil {
		return fmt.Errorf("recording product success: %w", err)
	}
	return nil
}

// RecordProductFailure increments the failure counter and marks the product
// stale once staleAfter consecutive failures are reached.
func (s *SQLiteStore) RecordProductFailure(
	ctx context.Context,
	id string,
	at time.Time,
	staleAfter int,
) (*FailureResult, error) {
	var res FailureResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var (
			failures int
			wasStale bool
		)
		if err := tx.QueryRowContext(ctx, sqliteSelectFailureState, id).Scan(&failures, &wasStale); err != nil {
			return sqlNotFound(err)
		}

		res.ConsecutiveFailures = failures + 1
		res.Stale = wasStale || (staleAfter > 0 && res.ConsecutiveFailures >= staleAfter)
		res.BecameStale = res.Stale && !wasStale

		_, err := tx.ExecContext(ctx, sqliteRecordProductFailure,
			id, res.ConsecutiveFailures, res.Stale, micros(at), micros(s.now()),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recording product failure: %w", err)
	}
	return &res, nil
}

// SetProductStale sets or clears the stale flag.
func (s *SQLiteStore) SetProductStale(ctx context.Context, id string, stale bool) error {
	res, err := s.db.ExecContext(ctx, sqliteSetProductStale, id, stale, micros(s.now()))
	if err != nil {
		return fmt.Errorf("setting product stale: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSchedulableProducts returns products that have at least one open alert.
func (s *SQLiteStore) ListSchedulableProducts(ctx context.Context) ([]ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListSchedulableProducts)
	if err != nil {
		return nil, fmt.Errorf("querying schedulable products: %w", err)
	}
	defer rows.Close()

	var entries []ScheduleEntry
	for rows.Next() {
		var (
			e           ScheduleEntry
			lastChecked sql.NullInt64
			pollSeconds int64
			alertPollNs int64
		)
		if err := rows.Scan(
			&e.ProductID, &e.Store, &e.URL, &lastChecked, &pollSeconds, &e.Stale, &alertPollNs,
		); err != nil {
			return nil, fmt.Errorf("scanning schedule entry: %w", err)
		}
		e.LastCheckedAt = optionalMicros(lastChecked)
		e.PollInterval = time.Duration(pollSeconds) * time.Second
		e.AlertPollInterval = time.Duration(alertPollNs)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AppendObservation inserts an observation unless a newer one exists for
// the same product, in which case ErrOutOfOrder is returned.
func (s *SQLiteStore) AppendObservation(ctx context.Context, o *domain.PriceObservation) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	res, err := s.db.ExecContext(ctx, sqliteAppendObservation,
		o.ID, o.ProductID, o.Price.String(), o.Currency, micros(o.ObservedAt),
		string(o.Availability), o.SourceURL,
	)
	if err != nil {
		return fmt.Errorf("appending observation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOutOfOrder
	}
	return nil
}

// GetObservation retrieves an observation by its ID.
func (s *SQLiteStore) GetObservation(ctx context.Context, id string) (*domain.PriceObservation, error) {
	o := &domain.PriceObservation{}
	if err := scanSQLiteObservation(s.db.QueryRowContext(ctx, sqliteGetObservation, id), o); err != nil {
		return nil, sqlNotFound(err)
	}
	return o, nil
}

// LatestObservation returns the newest observation of a product.
func (s *SQLiteStore) LatestObservation(ctx context.Context, productID string) (*domain.PriceObservation, error) {
	o := &domain.PriceObservation{}
	if err := scanSQLiteObservation(s.db.QueryRowContext(ctx, sqliteLatestObservation, productID), o); err != nil {
		return nil, sqlNotFound(err)
	}
	return o, nil
}

// ListObservations returns observations in [from, to] in append order.
func (s *SQLiteStore) ListObservations(
	ctx context.Context,
	productID string,
	from, to time.Time,
	limit int,
) ([]domain.PriceObservation, error) {
	if limit <= 0 {
		limit = maxLimit
	}
	rows, err := s.db.QueryContext(ctx, sqliteListObservations, productID, micros(from), micros(to), limit)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceObservation
	for rows.Next() {
		var o domain.PriceObservation
		if err := scanSQLiteObservation(rows, &o); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateAlert inserts a new alert together with its start intent.
func (s *SQLiteStore) CreateAlert(ctx context.Context, a *domain.Alert, intent *domain.NotificationIntent) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	settings, err := marshalSettings(a.Settings)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqliteCreateAlert,
			a.ID, a.UserRef, a.ProductID, string(settings), string(a.State),
			micros(a.ExpiresAt), micros(a.CreatedAt),
		); err != nil {
			return fmt.Errorf("inserting alert: %w", err)
		}
		a.UpdatedAt = a.CreatedAt
		if intent == nil {
			return nil
		}
		intent.AlertID = a.ID
		intent.ID = domain.IntentKey(a.ID, intent.Kind, intent.ObservationID)
		return insertSQLiteIntent(ctx, tx, intent)
	})
}

// GetAlert retrieves an alert by its ID.
func (s *SQLiteStore) GetAlert(ctx context.Context, id string) (*domain.Alert, error) {
	a := &domain.Alert{}
	if err := scanSQLiteAlert(s.db.QueryRowContext(ctx, sqliteGetAlert, id), a); err != nil {
		return nil, sqlNotFound(err)
	}
	return a, nil
}

// ListOpenAlertsByProduct returns the non-terminal alerts of a product.
func (s *SQLiteStore) ListOpenAlertsByProduct(ctx context.Context, productID string) ([]domain.Alert, error) {
	return s.queryAlerts(ctx, sqliteListOpenAlertsByProduct, productID)
}

// ListAlertsByUser returns every alert of a user, newest first.
func (s *SQLiteStore) ListAlertsByUser(ctx context.Context, userRef string) ([]domain.Alert, error) {
	return s.queryAlerts(ctx, sqliteListAlertsByUser, userRef)
}

// ListExpiredAlerts returns non-terminal alerts whose expiry has passed.
func (s *SQLiteStore) ListExpiredAlerts(ctx context.Context, now time.Time) ([]domain.Alert, error) {
	return s.queryAlerts(ctx, sqliteListExpiredAlerts, micros(now))
}

// CountOpenAlerts returns the number of non-terminal alerts.
func (s *SQLiteStore) CountOpenAlerts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, sqliteCountOpenAlerts).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting open alerts: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) queryAlerts(ctx context.Context, query string, args ...any) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := scanSQLiteAlert(rows, &a); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// CommitEvaluation atomically updates the alert and records the intent.
func (s *SQLiteStore) CommitEvaluation(
	ctx context.Context,
	prevState domain.AlertState,
	a *domain.Alert,
	intent *domain.NotificationIntent,
) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, sqliteUpdateAlertState,
			a.ID, string(prevState), string(a.State), a.ConditionMet,
			a.LastEvaluatedObservationID, optionalTime(a.LastEvaluatedAt),
			optionalTime(a.LastNotifiedAt), optionalTime(a.StoppedAt), micros(a.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("updating alert: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrConflict
		}
		if intent == nil {
			return nil
		}
		return insertSQLiteIntent(ctx, tx, intent)
	})
}

func insertSQLiteIntent(ctx context.Context, tx *sql.Tx, in *domain.NotificationIntent) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, sqliteInsertIntent,
		in.ID, in.AlertID, in.ObservationID, string(in.Kind), string(in.Status), micros(in.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting notification intent: %w", err)
	}
	return nil
}

// GetIntent retrieves a notification intent by its key.
func (s *SQLiteStore) GetIntent(ctx context.Context, id string) (*domain.NotificationIntent, error) {
	in := &domain.NotificationIntent{}
	if err := scanSQLiteIntent(s.db.QueryRowContext(ctx, sqliteGetIntent, id), in); err != nil {
		return nil, sqlNotFound(err)
	}
	return in, nil
}

// ListPendingIntents returns undelivered intents, oldest first.
func (s *SQLiteStore) ListPendingIntents(ctx context.Context, limit int) ([]domain.NotificationIntent, error) {
	return s.queryIntents(ctx, domain.IntentPending, limit)
}

// ListFailedIntents returns intents whose delivery was abandoned.
func (s *SQLiteStore) ListFailedIntents(ctx context.Context, limit int) ([]domain.NotificationIntent, error) {
	return s.queryIntents(ctx, domain.IntentDeliveryFailed, limit)
}

func (s *SQLiteStore) queryIntents(
	ctx context.Context,
	status domain.IntentStatus,
	limit int,
) ([]domain.NotificationIntent, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx, sqliteListIntentsByStatus, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("querying intents: %w", err)
	}
	defer rows.Close()

	var out []domain.NotificationIntent
	for rows.Next() {
		var in domain.NotificationIntent
		if err := scanSQLiteIntent(rows, &in); err != nil {
			return nil, fmt.Errorf("scanning intent: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// MarkIntentDelivered records a successful delivery.
func (s *SQLiteStore) MarkIntentDelivered(ctx context.Context, id string, attempts int, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, sqliteMarkIntentDelivered, id, attempts, micros(at)); err != nil {
		return fmt.Errorf("marking intent delivered: %w", err)
	}
	return nil
}

// MarkIntentFailed records an abandoned delivery.
func (s *SQLiteStore) MarkIntentFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	if _, err := s.db.ExecContext(ctx, sqliteMarkIntentFailed, id, attempts, lastErr); err != nil {
		return fmt.Errorf("marking intent failed: %w", err)
	}
	return nil
}

// GetStats returns aggregate counts.
func (s *SQLiteStore) GetStats(ctx context.Context, now time.Time) (*domain.Stats, error) {
	st := &domain.Stats{}
	err := s.db.QueryRowContext(ctx, sqliteGetStats, micros(startOfDay(now))).Scan(
		&st.TotalProducts, &st.StaleProducts, &st.ActiveAlerts, &st.TotalUsers,
		&st.ObservationsToday, &st.PendingIntents, &st.DeliveryFailures,
	)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	return st, nil
}

func scanSQLiteProduct(row scannable, p *domain.Product) error {
	var (
		lastPrice   sql.NullString
		lastChecked sql.NullInt64
		pollSeconds int64
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(
		&p.ID, &p.CanonicalName, &p.Store, &p.StoreRef, &p.URL, &p.ImageURL, &p.Description,
		&lastPrice, &p.Currency, &p.Availability, &lastChecked,
		&pollSeconds, &p.ConsecutiveFailures, &p.Stale, &createdAt, &updatedAt,
	); err != nil {
		return err
	}
	if lastPrice.Valid {
		price, err := parseOptionalDecimal(&lastPrice.String)
		if err != nil {
			return err
		}
		p.LastKnownPrice = price
	}
	p.LastCheckedAt = optionalMicros(lastChecked)
	p.PollInterval = time.Duration(pollSeconds) * time.Second
	p.CreatedAt = fromMicros(createdAt)
	p.UpdatedAt = fromMicros(updatedAt)
	return nil
}

func scanSQLiteObservation(row scannable, o *domain.PriceObservation) error {
	var (
		price      string
		observedAt int64
	)
	if err := row.Scan(
		&o.ID, &o.ProductID, &price, &o.Currency, &observedAt, &o.Availability, &o.SourceURL,
	); err != nil {
		return err
	}
	d, err := parseDecimal(price)
	if err != nil {
		return err
	}
	o.Price = d
	o.ObservedAt = fromMicros(observedAt)
	return nil
}

func scanSQLiteAlert(row scannable, a *domain.Alert) error {
	var (
		settings      string
		lastEvaluated sql.NullInt64
		lastNotified  sql.NullInt64
		stopped       sql.NullInt64
		expiresAt     int64
		createdAt     int64
		updatedAt     int64
	)
	if err := row.Scan(
		&a.ID, &a.UserRef, &a.ProductID, &settings, &a.State, &a.ConditionMet,
		&a.LastEvaluatedObservationID, &lastEvaluated, &lastNotified, &stopped,
		&expiresAt, &createdAt, &updatedAt,
	); err != nil {
		return err
	}
	a.LastEvaluatedAt = optionalMicros(lastEvaluated)
	a.LastNotifiedAt = optionalMicros(lastNotified)
	a.StoppedAt = optionalMicros(stopped)
	a.ExpiresAt = fromMicros(expiresAt)
	a.CreatedAt = fromMicros(createdAt)
	a.UpdatedAt = fromMicros(updatedAt)
	return unmarshalSettings([]byte(settings), &a.Settings)
}

func scanSQLiteIntent(row scannable, in *domain.NotificationIntent) error {
	var (
		createdAt   int64
		deliveredAt sql.NullInt64
	)
	if err := row.Scan(
		&in.ID, &in.AlertID, &in.ObservationID, &in.Kind, &in.Status, &in.Attempts, &in.LastError,
		&createdAt, &deliveredAt,
	); err != nil {
		return err
	}
	in.CreatedAt = fromMicros(createdAt)
	in.DeliveredAt = optionalMicros(deliveredAt)
	return nil
}

func micros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(n int64) time.Time { return time.UnixMicro(n).UTC() }

func optionalMicros(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMicros(n.Int64)
	return &t
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return micros(*t)
}

func sqlNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
