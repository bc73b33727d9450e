// Package queue defines the task event payload and the RabbitMQ plumbing
// that carries it.
package queue

import "time"

// Event names.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// TaskEvent is published after a task write commits.  It carries enough
// for an audit trail or a notifier without reading the database.
type TaskEvent struct {
	Event      string    `json:"event"`
	Kind       string    `json:"kind"`
	TaskID     uint64    `json:"task_id"`
	ActorID    uint64    `json:"actor_id"`
	AssignedTo *uint64   `json:"assigned_to,omitempty"`
	Title      string    `json:"title,omitempty"`
	DueDate    string    `json:"due_date,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
