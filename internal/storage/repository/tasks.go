package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nesi-market/nesi/internal/models"
)

// CountActiveTasks считает задачи исполнителя в статусе in_progress.
func (s *Storage) CountActiveTasks(ctx context.Context, executorUID string) (int, error) {
	const op = "storage.CountActiveTasks"

	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE executor_id = $1 AND status = $2`,
		executorUID, string(models.TaskInProgress),
	).Scan(&count)
	if err != nil {
		// некорректный UUID не может принадлежать исполнителю, активных задач нет
		mapped := mapError(op, err)
		if errors.Is(mapped, ErrNotFound) {
			return 0, nil
		}
		return 0, mapped
	}
	return count, nil
}

// GetTask возвращает задачу по ID.
func (s *Storage) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	const op = "storage.GetTask"

	t := &models.Task{}
	var executorID sql.NullString
	var subcategoryID sql.NullInt64
	var status string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, customer_id, executor_id, subcategory_id, title, price, status, created_at
		 FROM tasks WHERE id = $1`, id,
	).Scan(&t.ID, &t.CustomerID, &executorID, &subcategoryID, &t.Title, &t.Price, &status, &t.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	t.Status = models.TaskStatus(status)
	if executorID.Valid {
		t.ExecutorID = &executorID.String
	}
	if subcategoryID.Valid {
		t.SubcategoryID = &subcategoryID.Int64
	}
	return t, nil
}

// AssignExecutor назначает исполнителя открытой задаче и переводит её в работу,
// если у исполнителя меньше limit задач в статусе in_progress.
// Строка исполнителя блокируется до конца транзакции, поэтому параллельные наймы
// одного исполнителя пересчитывают его задачи по очереди.
// Возвращает false, если задача уже не в статусе open, и ErrLimitReached, если лимит исчерпан.
func (s *Storage) AssignExecutor(ctx context.Context, taskID int64, executorUID string, limit int) (bool, error) {
	const op = "storage.AssignExecutor"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var locked string
	err = tx.QueryRowContext(ctx,
		`SELECT uid FROM users WHERE uid = $1 FOR UPDATE`, executorUID,
	).Scan(&locked)
	if err != nil {
		return false, mapError(op, err)
	}

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE executor_id = $1 AND status = $2`,
		executorUID, string(models.TaskInProgress),
	).Scan(&active)
	if err != nil {
		return false, mapError(op, err)
	}
	if active >= limit {
		return false, fmt.Errorf("%s: %w: %d of %d", op, ErrLimitReached, active, limit)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET executor_id = $1, status = $2
		 WHERE id = $3 AND status = $4`,
		executorUID, string(models.TaskInProgress), taskID, string(models.TaskOpen),
	)
	if err != nil {
		return false, mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError(op, err)
	}
	if n != 1 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
