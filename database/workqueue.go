package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"
)

const queueItemColumns = `item_id, lead_id, status, attempts, max_attempts, error_message, claimed_at, created_at, updated_at`

// EnqueueLead creates the pending queue item for a lead. The unique lead_id
// constraint keeps at most one item per lead.
func (d Datasource) EnqueueLead(ctx context.Context, leadID string, maxAttempts int) (*model.QueueItem, error) {
	ctx, span := otel.Tracer("leadflow.database").Start(ctx, "Enqueueing lead for distribution")
	defer span.End()

	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}

	item := &model.QueueItem{
		ItemID:      GenerateUUIDWithSuffix("qitem"),
		LeadID:      leadID,
		Status:      model.QueueStatusPending,
		MaxAttempts: maxAttempts,
		CreatedAt:   now(),
	}
	item.UpdatedAt = item.CreatedAt

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO leadflow.distribution_queue(item_id,lead_id,status,attempts,max_attempts,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		item.ItemID, item.LeadID, item.Status, item.Attempts, item.MaxAttempts, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if pqDuplicateErr(err) {
			return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Lead '%s' is already queued", leadID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to enqueue lead", err)
	}

	return item, nil
}

// ClaimPendingItems atomically flips up to n oldest pending items to
// processing and returns them. FOR UPDATE SKIP LOCKED keeps two concurrent
// processors from ever claiming overlapping sets.
func (d Datasource) ClaimPendingItems(ctx context.Context, n int) ([]model.QueueItem, error) {
	ctx, span := otel.Tracer("leadflow.database").Start(ctx, "Claiming pending queue items")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		UPDATE leadflow.distribution_queue
		SET status = 'processing', claimed_at = NOW(), updated_at = NOW()
		WHERE item_id IN (
			SELECT item_id
			FROM leadflow.distribution_queue
			WHERE status = 'pending'
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+queueItemColumns, n)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to claim queue items", err)
	}
	defer rows.Close()

	var items []model.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan queue item", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating queue items", err)
	}

	return items, nil
}

func (d Datasource) MarkItemCompleted(ctx context.Context, itemID string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE leadflow.distribution_queue
		SET status = 'completed', error_message = NULL, updated_at = NOW()
		WHERE item_id = $1
	`, itemID)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to complete queue item", err)
	}
	return checkItemAffected(result, itemID)
}

// MarkItemFailed parks an item as failed immediately, regardless of its
// remaining retry budget. Used for permanent failures such as a missing
// lead or an empty eligible pool.
func (d Datasource) MarkItemFailed(ctx context.Context, itemID string, errorMessage string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE leadflow.distribution_queue
		SET status = 'failed', error_message = $2, updated_at = NOW()
		WHERE item_id = $1
	`, itemID, errorMessage)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to fail queue item", err)
	}
	return checkItemAffected(result, itemID)
}

// RecordItemFailure burns one attempt for a transient failure. The item goes
// back to pending while attempts remain, otherwise it is parked as failed.
// The attempt count and latest error survive either way.
func (d Datasource) RecordItemFailure(ctx context.Context, itemID string, errorMessage string) (*model.QueueItem, error) {
	row := d.Conn.QueryRowContext(ctx, `
		UPDATE leadflow.distribution_queue
		SET attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
			error_message = $2,
			claimed_at = NULL,
			updated_at = NOW()
		WHERE item_id = $1
		RETURNING `+queueItemColumns, itemID, errorMessage)

	item, err := scanQueueItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Queue item '%s' not found", itemID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record queue item failure", err)
	}

	return item, nil
}

// ReclaimStaleItems returns items stuck in processing longer than olderThan
// back to pending. Covers processors that died mid-batch.
func (d Datasource) ReclaimStaleItems(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE leadflow.distribution_queue
		SET status = 'pending', claimed_at = NULL, updated_at = NOW()
		WHERE status = 'processing' AND claimed_at < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reclaim stale queue items", err)
	}

	reclaimed, err := result.RowsAffected()
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	return reclaimed, nil
}

func (d Datasource) GetQueueItem(ctx context.Context, itemID string) (*model.QueueItem, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+queueItemColumns+`
		FROM leadflow.distribution_queue
		WHERE item_id = $1
	`, itemID)

	item, err := scanQueueItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Queue item '%s' not found", itemID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve queue item", err)
	}

	return item, nil
}

func scanQueueItem(row interface{ Scan(...interface{}) error }) (*model.QueueItem, error) {
	item := &model.QueueItem{}
	var errorMessage sql.NullString
	err := row.Scan(&item.ItemID, &item.LeadID, &item.Status, &item.Attempts, &item.MaxAttempts, &errorMessage, &item.ClaimedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.ErrorMessage = errorMessage.String
	return item, nil
}

func checkItemAffected(result sql.Result, itemID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Queue item '%s' not found", itemID), nil)
	}
	return nil
}
