package store

// SQLite dialect of queries.go. Timestamps are bound as unix microseconds
// and prices as decimal strings.

const (
	sqliteProductColumns = `id, canonical_name, store, store_ref, url, image_url, description,
	last_known_price, currency, availability, last_checked_at,
	poll_interval_seconds, consecutive_failures, stale, created_at, updated_at`

	sqliteObservationColumns = `id, product_id, price, currency, observed_at, availability, source_url`

	sqliteAlertColumns = `id, user_ref, product_id, settings, state, condition_met,
	last_evaluated_observation_id, last_evaluated_at, last_notified_at, stopped_at,
	expires_at, created_at, updated_at`

	sqliteIntentColumns = `id, alert_id, observation_id, kind, status, attempts, last_error,
	created_at, delivered_at`
)

// Product queries.
const (
	sqliteUpsertProduct = `
		INSERT INTO products (
			id, canonical_name, store, store_ref, url, image_url, description,
			currency, availability, poll_interval_seconds, created_at, updated_at
		) VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11, ?11)
		ON CONFLICT (store, store_ref) DO UPDATE SET
			url = COALESCE(NULLIF(excluded.url, ''), products.url),
			image_url = COALESCE(NULLIF(excluded.image_url, ''), products.image_url),
			description = COALESCE(NULLIF(excluded.description, ''), products.description),
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at`

	sqliteGetProduct = `SELECT ` + sqliteProductColumns + ` FROM products WHERE id = ?1`

	sqliteFindProductByRef = `SELECT ` + sqliteProductColumns + `
		FROM products WHERE store = ?1 AND store_ref = ?2`

	sqliteListProductsByStore = `SELECT ` + sqliteProductColumns + `
		FROM products WHERE store = ?1 ORDER BY created_at, rowid`

	sqliteListProductsBase = `SELECT ` + sqliteProductColumns + ` FROM products`

	sqliteCountProductsBase = `SELECT COUNT(*) FROM products`

	sqliteRecordProductSuccess = `
		UPDATE products SET
			last_known_price = ?2,
			currency = ?3,
			availability = ?4,
			last_checked_at = ?5,
			consecutive_failures = 0,
			stale = 0,
			updated_at = ?6
		WHERE id = ?1`

	sqliteSelectFailureState = `
		SELECT consecutive_failures, stale FROM products WHERE id = ?1`

	sqliteRecordProductFailure = `
		UPDATE products SET
			consecutive_failures = ?2,
			stale = ?3,
			last_checked_at = ?4,
			updated_at = ?5
		WHERE id = ?1`

	sqliteSetProductStale = `
		UPDATE products SET stale = ?2, updated_at = ?3 WHERE id = ?1`

	sqliteListSchedulableProducts = `
		SELECT p.id, p.store, p.url, p.last_checked_at, p.poll_interval_seconds, p.stale,
			COALESCE(MIN(NULLIF(CAST(json_extract(a.settings, '$.poll_interval') AS INTEGER), 0)), 0)
		FROM products p
		LEFT JOIN alerts a ON a.product_id = p.id AND a.state IN ('active', 'triggered')
		WHERE a.id IS NOT NULL OR p.poll_interval_seconds > 0
		GROUP BY p.id`
)

// Observation queries.
const (
	sqliteAppendObservation = `
		INSERT INTO price_observations (
			id, product_id, price, currency, observed_at, availability, source_url
		)
		SELECT ?1, ?2, ?3, ?4, ?5, ?6, ?7
		WHERE NOT EXISTS (
			SELECT 1 FROM price_observations
			WHERE product_id = ?2 AND observed_at > ?5
		)`

	sqliteGetObservation = `SELECT ` + sqliteObservationColumns + `
		FROM price_observations WHERE id = ?1`

	sqliteLatestObservation = `SELECT ` + sqliteObservationColumns + `
		FROM price_observations
		WHERE product_id = ?1
		ORDER BY observed_at DESC, rowid DESC
		LIMIT 1`

	sqliteListObservations = `SELECT ` + sqliteObservationColumns + `
		FROM price_observations
		WHERE product_id = ?1 AND observed_at >= ?2 AND observed_at <= ?3
		ORDER BY observed_at, rowid
		LIMIT ?4`
)

// Alert queries.
const (
	sqliteCreateAlert = `
		INSERT INTO alerts (
			id, user_ref, product_id, settings, state, condition_met,
			expires_at, created_at, updated_at
		) VALUES (?1, ?2, ?3, ?4, ?5, 0, ?6, ?7, ?7)`

	sqliteGetAlert = `SELECT ` + sqliteAlertColumns + ` FROM alerts WHERE id = ?1`

	sqliteListOpenAlertsByProduct = `SELECT ` + sqliteAlertColumns + `
		FROM alerts
		WHERE product_id = ?1 AND state IN ('active', 'triggered')
		ORDER BY created_at, rowid`

	sqliteListAlertsByUser = `SELECT ` + sqliteAlertColumns + `
		FROM alerts
		WHERE user_ref = ?1
		ORDER BY created_at DESC, rowid DESC`

	sqliteListExpiredAlerts = `SELECT ` + sqliteAlertColumns + `
		FROM alerts
		WHERE state IN ('active', 'triggered') AND expires_at <= ?1
		ORDER BY expires_at`

	sqliteCountOpenAlerts = `
		SELECT COUNT(*) FROM alerts WHERE state IN ('active', 'triggered')`

	sqliteUpdateAlertState = `
		UPDATE alerts SET
			state = ?3,
			condition_met = ?4,
			last_evaluated_observation_id = ?5,
			last_evaluated_at = ?6,
			last_notified_at = ?7,
			stopped_at = ?8,
			updated_at = ?9
		WHERE id = ?1 AND state = ?2`
)

// Notification intent queries.
const (
	sqliteInsertIntent = `
		INSERT INTO notification_intents (
			id, alert_id, observation_id, kind, status, attempts, last_error, created_at
		) VALUES (?1, ?2, ?3, ?4, ?5, 0, '', ?6)
		ON CONFLICT (id) DO NOTHING`

	sqliteGetIntent = `SELECT ` + sqliteIntentColumns + ` FROM notification_intents WHERE id = ?1`

	sqliteListIntentsByStatus = `SELECT ` + sqliteIntentColumns + `
		FROM notification_intents
		WHERE status = ?1
		ORDER BY created_at, rowid
		LIMIT ?2`

	sqliteMarkIntentDelivered = `
		UPDATE notification_intents SET
			status = 'delivered', attempts = ?2, delivered_at = ?3, last_error = ''
		WHERE id = ?1`

	sqliteMarkIntentFailed = `
		UPDATE notification_intents SET
			status = 'delivery_failed', attempts = ?2, last_error = ?3
		WHERE id = ?1`
)

const sqliteGetStats = `
	SELECT
		(SELECT COUNT(*) FROM products),
		(SELECT COUNT(*) FROM products WHERE stale = 1),
		(SELECT COUNT(*) FROM alerts WHERE state IN ('active', 'triggered')),
		(SELECT COUNT(DISTINCT user_ref) FROM alerts),
		(SELECT COUNT(*) FROM price_observations WHERE observed_at >= ?1),
		(SELECT COUNT(*) FROM notification_intents WHERE status = 'pending'),
		(SELECT COUNT(*) FROM notification_intents WHERE status = 'delivery_failed')`
