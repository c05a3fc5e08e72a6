package postgres

// SQL for the durable event log substitution.

const (
	// queryLockAggregate serializes concurrent appenders to the same
	// aggregate for the lifetime of the transaction, even before any row
	// for that aggregate exists (a plain SELECT ... FOR UPDATE locks
	// nothing when the result set is empty).
	queryLockAggregate = `SELECT pg_advisory_xact_lock(hashtext($1))`

	queryMaxVersion = `SELECT COALESCE(MAX(version), 0) FROM events WHERE aggregate_id = $1`

	queryInsertEvent = `
		INSERT INTO events (event_id, aggregate_id, kind, version, occurred_at, body)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	queryReadStream = `
		SELECT event_id, aggregate_id, kind, version, occurred_at, body
		FROM events
		WHERE aggregate_id = $1
		ORDER BY version ASC
	`

	queryReadAll = `
		SELECT event_id, aggregate_id, kind, version, occurred_at, body
		FROM events
		ORDER BY occurred_at ASC, seq ASC
	`

	queryExists = `SELECT EXISTS(SELECT 1 FROM events WHERE aggregate_id = $1)`
)
