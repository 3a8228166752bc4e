package store

// SQL query constants organized by entity.
// PostgresStore methods reference these constants; the SQLite dialect lives
// in sqlite_queries.go.

const (
	productColumns = `id::text, canonical_name, store, store_ref, url, image_url, description,
	last_known_price::text, currency, availability, last_checked_at,
	poll_interval_seconds, consecutive_failures, stale, created_at, updated_at`

	observationColumns = `id::text, product_id::text, price::text, currency, observed_at,
	availability, source_url`

	alertColumns = `id::text, user_ref, product_id::text, settings, state, condition_met,
	last_evaluated_observation_id, last_evaluated_at, last_notified_at, stopped_at,
	expires_at, created_at, updated_at`

	intentColumns = `id, alert_id::text, observation_id, kind, status, attempts, last_error,
	created_at, delivered_at`
)

// Product queries.
const (
	queryUpsertProduct = `
		INSERT INTO products (
			id, canonical_name, store, store_ref, url, image_url, description,
			currency, availability, poll_interval_seconds, created_at, updated_at
		) VALUES (
			@id, @canonical_name, @store, @store_ref, @url, @image_url, @description,
			@currency, @availability, @poll_interval_seconds, now(), now()
		)
		ON CONFLICT (store, store_ref) DO UPDATE SET
			url = COALESCE(NULLIF(EXCLUDED.url, ''), products.url),
			image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), products.image_url),
			description = COALESCE(NULLIF(EXCLUDED.description, ''), products.description),
			updated_at = now()
		RETURNING id::text, created_at, updated_at`

	queryGetProduct = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	queryFindProductByRef = `SELECT ` + productColumns + `
		FROM products WHERE store = $1 AND store_ref = $2`

	queryListProductsByStore = `SELECT ` + productColumns + `
		FROM products WHERE store = $1 ORDER BY created_at`

	queryListProductsBase = `SELECT ` + productColumns + ` FROM products`

	queryCountProductsBase = `SELECT COUNT(*) FROM products`

	queryRecordProductSuccess = `
		UPDATE products SET
			last_known_price = @price::numeric,
			currency = @currency,
			availability = @availability,
			last_checked_at = @observed_at,
			consecutive_failures = 0,
			stale = false,
			updated_at = now()
		WHERE id = @id`

	queryRecordProductFailure = `
		WITH prev AS (
			SELECT id, stale FROM products WHERE id = @id FOR UPDATE
		)
		UPDATE products p SET
			consecutive_failures = p.consecutive_failures + 1,
			last_checked_at = @at,
			stale = p.stale OR (@stale_after::int > 0 AND p.consecutive_failures + 1 >= @stale_after::int),
			updated_at = now()
		FROM prev
		WHERE p.id = prev.id
		RETURNING p.consecutive_failures, p.stale, prev.stale`

	querySetProductStale = `
		UPDATE products SET stale = $2, updated_at = now() WHERE id = $1`

	queryListSchedulableProducts = `
		SELECT p.id::text, p.store, p.url, p.last_checked_at, p.poll_interval_seconds, p.stale,
			COALESCE(MIN(NULLIF((a.settings->>'poll_interval')::bigint, 0)), 0)
		FROM products p
		LEFT JOIN alerts a ON a.product_id = p.id AND a.state IN ('active', 'triggered')
		WHERE a.id IS NOT NULL OR p.poll_interval_seconds > 0
		GROUP BY p.id`
)

// Observation queries.
const (
	// The NOT EXISTS guard keeps history ordered even across processes.
	queryAppendObservation = `
		INSERT INTO price_observations (
			id, product_id, price, currency, observed_at, availability, source_url
		)
		SELECT @id::uuid, @product_id::uuid, @price::numeric, @currency::text,
			@observed_at::timestamptz, @availability::text, @source_url::text
		WHERE NOT EXISTS (
			SELECT 1 FROM price_observations
			WHERE product_id = @product_id::uuid AND observed_at > @observed_at::timestamptz
		)`

	queryGetObservation = `SELECT ` + observationColumns + `
		FROM price_observations WHERE id::text = $1`

	queryLatestObservation = `SELECT ` + observationColumns + `
		FROM price_observations
		WHERE product_id = $1
		ORDER BY observed_at DESC, seq DESC
		LIMIT 1`

	queryListObservations = `SELECT ` + observationColumns + `
		FROM price_observations
		WHERE product_id = $1 AND observed_at >= $2 AND observed_at <= $3
		ORDER BY observed_at, seq
		LIMIT $4`
)

// Alert queries.
const (
	queryCreateAlert = `
		INSERT INTO alerts (
			id, user_ref, product_id, settings, state, condition_met,
			expires_at, created_at, updated_at
		) VALUES (
			@id, @user_ref, @product_id, @settings, @state, false,
			@expires_at, @created_at, @created_at
		)`

	queryGetAlert = `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	queryListOpenAlertsByProduct = `SELECT ` + alertColumns + `
		FROM alerts
		WHERE product_id = $1 AND state IN ('active', 'triggered')
		ORDER BY created_at`

	queryListAlertsByUser = `SELECT ` + alertColumns + `
		FROM alerts
		WHERE user_ref = $1
		ORDER BY created_at DESC`

	queryListExpiredAlerts = `SELECT ` + alertColumns + `
		FROM alerts
		WHERE state IN ('active', 'triggered') AND expires_at <= $1
		ORDER BY expires_at`

	queryCountOpenAlerts = `
		SELECT COUNT(*) FROM alerts WHERE state IN ('active', 'triggered')`

	queryUpdateAlertState = `
		UPDATE alerts SET
			state = @state,
			condition_met = @condition_met,
			last_evaluated_observation_id = @last_evaluated_observation_id,
			last_evaluated_at = @last_evaluated_at,
			last_notified_at = @last_notified_at,
			stopped_at = @stopped_at,
			updated_at = @updated_at
		WHERE id = @id AND state = @prev_state`
)

// Notification intent queries.
const (
	queryInsertIntent = `
		INSERT INTO notification_intents (
			id, alert_id, observation_id, kind, status, attempts, last_error, created_at
		) VALUES (
			@id, @alert_id, @observation_id, @kind, @status, 0, '', @created_at
		)
		ON CONFLICT (id) DO NOTHING`

	queryGetIntent = `SELECT ` + intentColumns + ` FROM notification_intents WHERE id = $1`

	queryListIntentsByStatus = `SELECT ` + intentColumns + `
		FROM notification_intents
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`

	queryMarkIntentDelivered = `
		UPDATE notification_intents SET
			status = 'delivered', attempts = $2, delivered_at = $3, last_error = ''
		WHERE id = $1`

	queryMarkIntentFailed = `
		UPDATE notification_intents SET
			status = 'delivery_failed', attempts = $2, last_error = $3
		WHERE id = $1`
)

// Stats query.
const queryGetStats = `
	SELECT
		(SELECT COUNT(*) FROM products),
		(SELECT COUNT(*) FROM products WHERE stale),
		(SELECT COUNT(*) FROM alerts WHERE state IN ('active', 'triggered')),
		(SELECT COUNT(DISTINCT user_ref) FROM alerts),
		(SELECT COUNT(*) FROM price_observations WHERE observed_at >= $1),
		(SELECT COUNT(*) FROM notification_intents WHERE status = 'pending'),
		(SELECT COUNT(*) FROM notification_intents WHERE status = 'delivery_failed')`
