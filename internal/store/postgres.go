package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// PostgresStore is covered by the integration-tagged store suite.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if !strings.Contains(connString, "pool_max_conns") {
		cfg.MaxConns = defaultPoolSize
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// UpsertProduct inserts a product or refreshes the descriptive fields of the
// existing row with the same (store, store_ref).
func (s *PostgresStore) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Availability == "" {
		p.Availability = domain.AvailabilityUnknown
	}

	args := pgx.NamedArgs{
		"id":                    p.ID,
		"canonical_name":        p.CanonicalName,
		"store":                 p.Store,
		"store_ref":             p.StoreRef,
		"url":                   p.URL,
		"image_url":             p.ImageURL,
		"description":           p.Description,
		"currency":              p.Currency,
		"availability":          string(p.Availability),
		"poll_interval_seconds": seconds(p.PollInterval),
	}

	return s.pool.QueryRow(ctx, queryUpsertProduct, args).Scan(
		&p.ID, &p.CreatedAt, &p.UpdatedAt,
	)
}

// GetProduct retrieves a product by its ID.
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct(ctx, queryGetProduct, id)
}

// FindProductByRef retrieves a product by its store identity.
func (s *PostgresStore) FindProductByRef(ctx context.Context, store, storeRef string) (*domain.Product, error) {
	return s.getProduct(ctx, queryFindProductByRef, store, storeRef)
}

func (s *PostgresStore) getProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	p := &domain.Product{}
	if err := scanPgProduct(s.pool.QueryRow(ctx, query, args...), p); err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListProductsByStore returns every product of a store.
func (s *PostgresStore) ListProductsByStore(ctx context.Context, store string) ([]domain.Product, error) {
	return s.queryProducts(ctx, queryListProductsByStore, store)
}

// ListProducts queries products with optional filters, returning results and total count.
func (s *PostgresStore) ListProducts(ctx context.Context, q *ProductQuery) ([]domain.Product, int, error) {
	where, page, args := q.ToSQL(postgresPlaceholder)

	var total int
	if err := s.pool.QueryRow(ctx, queryCountProductsBase+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	products, err := s.queryProducts(ctx, queryListProductsBase+where+page, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *PostgresStore) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanPgProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// RecordProductSuccess stores the latest price and clears failure tracking.
func (s *PostgresStore) RecordProductSuccess(ctx context.Context, id string, obs *domain.PriceObservation) error {
	_, err := s.pool.Exec(ctx, queryRecordProductSuccess, pgx.NamedArgs{
		"id":           id,
		"price":        obs.Price.String(),
		"currency":     obs.Currency,
		"availability": string(obs.Availability),
		"observed_at":  obs.ObservedAt,
	})
	if err != nil {
		return fmt.Errorf("recording product success: %w", err)
	}
	return nil
}

// RecordProductFailure increments the failure counter and marks the product
// stale once staleAfter consecutive failures are reached.
func (s *PostgresStore) RecordProductFailure(
	ctx context.Context,
	id string,
	at time.Time,
	staleAfter int,
) (*FailureResult, error) {
	var (
		res      FailureResult
		wasStale bool
	)
	err := s.pool.QueryRow(ctx, queryRecordProductFailure, pgx.NamedArgs{
		"id":          id,
		"at":          at,
		"stale_after": staleAfter,
	}).Scan(&res.ConsecutiveFailures, &res.Stale, &wasStale)
	if err != nil {
		return nil, fmt.Errorf("recording product failure: %w", notFound(err))
	}
	res.BecameStale = res.Stale && !wasStale
	return &res, nil
}

// SetProductStale sets or clears the stale flag.
func (s *PostgresStore) SetProductStale(ctx context.Context, id string, stale bool) error {
	tag, err := s.pool.Exec(ctx, querySetProductStale, id, stale)
	if err != nil {
		return fmt.Errorf("setting product stale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSchedulableProducts returns products that have at least one open alert.
func (s *PostgresStore) ListSchedulableProducts(ctx context.Context) ([]ScheduleEntry, error) {
	rows, err := s.pool.Query(ctx, queryListSchedulableProducts)
	if err != nil {
		return nil, fmt.Errorf("querying schedulable products: %w", err)
	}
	defer rows.Close()

	var entries []ScheduleEntry
	for rows.Next() {
		var (
			e           ScheduleEntry
			pollSeconds int64
			alertPollNs int64
		)
		if err := rows.Scan(
			&e.ProductID, &e.Store, &e.URL, &e.LastCheckedAt, &pollSeconds, &e.Stale, &alertPollNs,
		); err != nil {
			return nil, fmt.Errorf("scanning schedule entry: %w", err)
		}
		e.PollInterval = time.Duration(pollSeconds) * time.Second
		e.AlertPollInterval = time.Duration(alertPollNs)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AppendObservation inserts an observation unless a newer one exists for
// the same product, in which case ErrOutOfOrder is returned.
func (s *PostgresStore) AppendObservation(ctx context.Context, o *domain.PriceObservation) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	tag, err := s.pool.Exec(ctx, queryAppendObservation, pgx.NamedArgs{
		"id":           o.ID,
		"product_id":   o.ProductID,
		"price":        o.Price.String(),
		"currency":     o.Currency,
		"observed_at":  o.ObservedAt,
		"availability": string(o.Availability),
		"source_url":   o.SourceURL,
	})
	if err != nil {
		return fmt.Errorf("appending observation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOutOfOrder
	}
	return nil
}

// GetObservation retrieves an observation by its ID.
func (s *PostgresStore) GetObservation(ctx context.Context, id string) (*domain.PriceObservation, error) {
	o := &domain.PriceObservation{}
	if err := scanPgObservation(s.pool.QueryRow(ctx, queryGetObservation, id), o); err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// LatestObservation returns the newest observation of a product.
func (s *PostgresStore) LatestObservation(ctx context.Context, productID string) (*domain.PriceObservation, error) {
	o := &domain.PriceObservation{}
	if err := scanPgObservation(s.pool.QueryRow(ctx, queryLatestObservation, productID), o); err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// ListObservations returns observations in [from, to] in append order.
func (s *PostgresStore) ListObservations(
	ctx context.Context,
	productID string,
	from, to time.Time,
	limit int,
) ([]domain.PriceObservation, error) {
	if limit <= 0 {
		limit = maxLimit
	}
	rows, err := s.pool.Query(ctx, queryListObservations, productID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceObservation
	for rows.Next() {
		var o domain.PriceObservation
		if err := scanPgObservation(rows, &o); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateAlert inserts a new alert together with its start intent.
func (s *PostgresStore) CreateAlert(ctx context.Context, a *domain.Alert, intent *domain.NotificationIntent) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	settings, err := marshalSettings(a.Settings)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queryCreateAlert, pgx.NamedArgs{
			"id":         a.ID,
			"user_ref":   a.UserRef,
			"product_id": a.ProductID,
			"settings":   settings,
			"state":      string(a.State),
			"expires_at": a.ExpiresAt,
			"created_at": a.CreatedAt,
		}); err != nil {
			return fmt.Errorf("inserting alert: %w", err)
		}
		a.UpdatedAt = a.CreatedAt
		if intent == nil {
			return nil
		}
		intent.AlertID = a.ID
		intent.ID = domain.IntentKey(a.ID, intent.Kind, intent.ObservationID)
		return insertPgIntent(ctx, tx, intent)
	})
}

// GetAlert retrieves an alert by its ID.
func (s *PostgresStore) GetAlert(ctx context.Context, id string) (*domain.Alert, error) {
	a := &domain.Alert{}
	if err := scanPgAlert(s.pool.QueryRow(ctx, queryGetAlert, id), a); err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListOpenAlertsByProduct returns the non-terminal alerts of a product.
func (s *PostgresStore) ListOpenAlertsByProduct(ctx context.Context, productID string) ([]domain.Alert, error) {
	return s.queryAlerts(ctx, queryListOpenAlertsByProduct, productID)
}

// ListAlertsByUser returns every alert of a user, newest first.
func (s *PostgresStore) ListAlertsByUser(ctx context.Context, userRef string) ([]domain.Alert, error) {
	return s.queryAlerts(ctx, queryListAlertsByUser, userRef)
}

// ListExpiredAlerts returns non-terminal alerts whose expiry has passed.
func (s *PostgresStore) ListExpiredAlerts(ctx context.Context, now time.Time) ([]domain.Alert, error) {
	return s.queryAlerts(ctx, queryListExpiredAlerts, now)
}

// CountOpenAlerts returns the number of non-terminal alerts.
func (s *PostgresStore) CountOpenAlerts(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, queryCountOpenAlerts).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting open alerts: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) queryAlerts(ctx context.Context, query string, args ...any) ([]domain.Alert, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := scanPgAlert(rows, &a); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// CommitEvaluation atomically updates the alert and records the intent.
func (s *PostgresStore) CommitEvaluation(
	ctx context.Context,
	prevState domain.AlertState,
	a *domain.Alert,
	intent *domain.NotificationIntent,
) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, queryUpdateAlertState, pgx.NamedArgs{
			"id":                            a.ID,
			"prev_state":                    string(prevState),
			"state":                         string(a.State),
			"condition_met":                 a.ConditionMet,
			"last_evaluated_observation_id": a.LastEvaluatedObservationID,
			"last_evaluated_at":             a.LastEvaluatedAt,
			"last_notified_at":              a.LastNotifiedAt,
			"stopped_at":                    a.StoppedAt,
			"updated_at":                    a.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("updating alert: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}
		if intent == nil {
			return nil
		}
		return insertPgIntent(ctx, tx, intent)
	})
}

func insertPgIntent(ctx context.Context, tx pgx.Tx, in *domain.NotificationIntent) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	_, err := tx.Exec(ctx, queryInsertIntent, pgx.NamedArgs{
		"id":             in.ID,
		"alert_id":       in.AlertID,
		"observation_id": in.ObservationID,
		"kind":           string(in.Kind),
		"status":         string(in.Status),
		"created_at":     in.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("inserting notification intent: %w", err)
	}
	return nil
}

// GetIntent retrieves a notification intent by its key.
func (s *PostgresStore) GetIntent(ctx context.Context, id string) (*domain.NotificationIntent, error) {
	in := &domain.NotificationIntent{}
	if err := scanPgIntent(s.pool.QueryRow(ctx, queryGetIntent, id), in); err != nil {
		return nil, notFound(err)
	}
	return in, nil
}

// ListPendingIntents returns undelivered intents, oldest first.
func (s *PostgresStore) ListPendingIntents(ctx context.Context, limit int) ([]domain.NotificationIntent, error) {
	return s.queryIntents(ctx, domain.IntentPending, limit)
}

// ListFailedIntents returns intents whose delivery was abandoned.
func (s *PostgresStore) ListFailedIntents(ctx context.Context, limit int) ([]domain.NotificationIntent, error) {
	return s.queryIntents(ctx, domain.IntentDeliveryFailed, limit)
}

func (s *PostgresStore) queryIntents(
	ctx context.Context,
	status domain.IntentStatus,
	limit int,
) ([]domain.NotificationIntent, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, queryListIntentsByStatus, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("querying intents: %w", err)
	}
	defer rows.Close()

	var out []domain.NotificationIntent
	for rows.Next() {
		var in domain.NotificationIntent
		if err := scanPgIntent(rows, &in); err != nil {
			return nil, fmt.Errorf("scanning intent: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// MarkIntentDelivered records a successful delivery.
func (s *PostgresStore) MarkIntentDelivered(ctx context.Context, id string, attempts int, at time.Time) error {
	if _, err := s.pool.Exec(ctx, queryMarkIntentDelivered, id, attempts, at); err != nil {
		return fmt.Errorf("marking intent delivered: %w", err)
	}
	return nil
}

// MarkIntentFailed records an abandoned delivery.
func (s *PostgresStore) MarkIntentFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	if _, err := s.pool.Exec(ctx, queryMarkIntentFailed, id, attempts, lastErr); err != nil {
		return fmt.Errorf("marking intent failed: %w", err)
	}
	return nil
}

// GetStats returns aggregate counts.
func (s *PostgresStore) GetStats(ctx context.Context, now time.Time) (*domain.Stats, error) {
	st := &domain.Stats{}
	err := s.pool.QueryRow(ctx, queryGetStats, startOfDay(now)).Scan(
		&st.TotalProducts, &st.StaleProducts, &st.ActiveAlerts, &st.TotalUsers,
		&st.ObservationsToday, &st.PendingIntents, &st.DeliveryFailures,
	)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	return st, nil
}

func scanPgProduct(row scannable, p *domain.Product) error {
	var (
		lastPrice   *string
		pollSeconds int64
	)
	if err := row.Scan(
		&p.ID, &p.CanonicalName, &p.Store, &p.StoreRef, &p.URL, &p.ImageURL, &p.Description,
		&lastPrice, &p.Currency, &p.Availability, &p.LastCheckedAt,
		&pollSeconds, &p.ConsecutiveFailures, &p.Stale, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return err
	}
	price, err := parseOptionalDecimal(lastPrice)
	if err != nil {
		return err
	}
	p.LastKnownPrice = price
	p.PollInterval = time.Duration(pollSeconds) * time.Second
	return nil
}

func scanPgObservation(row scannable, o *domain.PriceObservation) error {
	var price string
	if err := row.Scan(
		&o.ID, &o.ProductID, &price, &o.Currency, &o.ObservedAt, &o.Availability, &o.SourceURL,
	); err != nil {
		return err
	}
	d, err := parseDecimal(price)
	if err != nil {
		return err
	}
	o.Price = d
	return nil
}

func scanPgAlert(row scannable, a *domain.Alert) error {
	var settings []byte
	if err := row.Scan(
		&a.ID, &a.UserRef, &a.ProductID, &settings, &a.State, &a.ConditionMet,
		&a.LastEvaluatedObservationID, &a.LastEvaluatedAt, &a.LastNotifiedAt, &a.StoppedAt,
		&a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return err
	}
	return unmarshalSettings(settings, &a.Settings)
}

func scanPgIntent(row scannable, in *domain.NotificationIntent) error {
	return row.Scan(
		&in.ID, &in.AlertID, &in.ObservationID, &in.Kind, &in.Status, &in.Attempts, &in.LastError,
		&in.CreatedAt, &in.DeliveredAt,
	)
}

// notFound maps driver no-rows errors onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
