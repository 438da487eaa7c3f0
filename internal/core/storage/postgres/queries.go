package postgres

// SQL for activity record storage and the durable aggregation cache.

const (
	// querySaveRecord inserts a record with per-user idempotency.
	// ON CONFLICT DO NOTHING affects zero rows for duplicates.
	querySaveRecord = `
		INSERT INTO activity_records (
			id, user_id, product, title, channel, topics, occurred_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, id) DO NOTHING
	`

	// queryLoadRecords fetches one user's records for a filter set.
	// Empty product, NULL since and empty arrays disable their constraint.
	// Topics match when the record shares at least one topic with the filter.
	queryLoadRecords = `
		SELECT
			id, user_id, product, title, channel, topics, occurred_at, metadata
		FROM activity_records
		WHERE user_id = $1
		  AND ($2 = '' OR product = $2)
		  AND ($3::timestamptz IS NULL OR occurred_at >= $3)
		  AND (cardinality($4::text[]) = 0 OR channel = ANY($4))
		  AND (cardinality($5::text[]) = 0 OR topics && $5)
		ORDER BY occurred_at ASC, id ASC
	`

	queryUpsertCacheEntry = `
		INSERT INTO aggregation_cache (
			cache_key, id, user_id, aggregation_type, filter_hash,
			data, computed_at, expires_at, version, metadata, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (cache_key)
		DO UPDATE SET
			id               = EXCLUDED.id,
			data             = EXCLUDED.data,
			computed_at      = EXCLUDED.computed_at,
			expires_at       = EXCLUDED.expires_at,
			version          = EXCLUDED.version,
			metadata         = EXCLUDED.metadata,
			source           = EXCLUDED.source
	`

	queryFetchCacheEntry = `
		SELECT
			cache_key, id, user_id, aggregation_type, filter_hash,
			data, computed_at, expires_at, version, metadata, source
		FROM aggregation_cache
		WHERE cache_key = $1
	`

	queryDeleteCacheEntry = `DELETE FROM aggregation_cache WHERE cache_key = $1`

	queryDeleteCacheEntryIfUnchanged = `DELETE FROM aggregation_cache WHERE cache_key = $1 AND id = $2`

	queryFetchExpiredCacheEntries = `
		SELECT
			cache_key, id, user_id, aggregation_type, filter_hash,
			data, computed_at, expires_at, version, metadata, source
		FROM aggregation_cache
		WHERE expires_at <= $1
		ORDER BY expires_at ASC
	`
)
