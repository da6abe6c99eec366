package models

import "time"

// TaskStatus статус задачи.
type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task задача, опубликованная заказчиком.
// ExecutorID пуст, пока исполнитель не нанят.
type Task struct {
	ID            int64      `json:"id"`
	CustomerID    string     `json:"customer_id"`
	ExecutorID    *string    `json:"executor_id,omitempty"`
	SubcategoryID *int64     `json:"subcategory_id,omitempty"`
	Title         string     `json:"title"`
	Price         int64      `json:"price"`
	Status        TaskStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}
