// Package audit persists connection lifecycle records. The audit store is
// purely observational: the console data path never waits on it.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/threefoldtech/cloud-console/internal/model"
)

// ConnectionRepository provides data access for connection audit records.
type ConnectionRepository struct {
	db *sql.DB
}

// NewConnectionRepository creates a new ConnectionRepository.
func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Begin records a newly accepted connection and returns its record.
func (r *ConnectionRepository) Begin(ctx context.Context, remoteAddr string) (*model.Connection, error) {
	conn := &model.Connection{
		ID:          uuid.NewString(),
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
	}

	query := `
		INSERT INTO connections (id, remote_addr, connected_at)
		VALUES (?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, conn.ID, conn.RemoteAddr, conn.ConnectedAt); err != nil {
		return nil, fmt.Errorf("failed to record connection: %w", err)
	}

	return conn, nil
}

// Finish closes out a connection record with its final transfer counters.
func (r *ConnectionRepository) Finish(ctx context.Context, id string, bytesSent, bytesReceived, droppedChunks int64) error {
	query := `
		UPDATE connections
		SET disconnected_at = ?, bytes_sent = ?, bytes_received = ?, dropped_chunks = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), bytesSent, bytesReceived, droppedChunks, id)
	if err != nil {
		return fmt.Errorf("failed to finish connection record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrConnectionNotFound
	}

	return nil
}

// GetByID retrieves a connection record by its ID.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*model.Connection, error) {
	query := `
		SELECT id, remote_addr, connected_at, disconnected_at, bytes_sent, bytes_received, dropped_chunks
		FROM connections
		WHERE id = ?
	`

	conn := &model.Connection{}
	var disconnectedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&conn.ID,
		&conn.RemoteAddr,
		&conn.ConnectedAt,
		&disconnectedAt,
		&conn.BytesSent,
		&conn.BytesReceived,
		&conn.DroppedChunks,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	if disconnectedAt.Valid {
		t := disconnectedAt.Time
		conn.DisconnectedAt = &t
	}

	return conn, nil
}

// List retrieves the most recent connection records, newest first.
func (r *ConnectionRepository) List(ctx context.Context, limit int) ([]*model.Connection, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, remote_addr, connected_at, disconnected_at, bytes_sent, bytes_received, dropped_chunks
		FROM connections
		ORDER BY connected_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*model.Connection
	for rows.Next() {
		conn := &model.Connection{}
		var disconnectedAt sql.NullTime

		err := rows.Scan(
			&conn.ID,
			&conn.RemoteAddr,
			&conn.ConnectedAt,
			&disconnectedAt,
			&conn.BytesSent,
			&conn.BytesReceived,
			&conn.DroppedChunks,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}

		if disconnectedAt.Valid {
			t := disconnectedAt.Time
			conn.DisconnectedAt = &t
		}

		conns = append(conns, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return conns, nil
}

// CountActive returns the number of connections without a disconnect time.
func (r *ConnectionRepository) CountActive(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM connections WHERE disconnected_at IS NULL`

	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active connections: %w", err)
	}

	return count, nil
}
