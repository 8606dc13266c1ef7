package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
	TaskCancelled  TaskStatus = "Cancelled"
	TaskOverdue    TaskStatus = "Overdue"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
	PriorityUrgent TaskPriority = "Urgent"
)

type Recurrence string

const (
	RecurrenceNone    Recurrence = "None"
	RecurrenceDaily   Recurrence = "Daily"
	RecurrenceWeekly  Recurrence = "Weekly"
	RecurrenceMonthly Recurrence = "Monthly"
)

// Task is a scheduled farm chore.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category" json:"category"`
	Priority    TaskPriority       `bson:"priority" json:"priority"`
	AssignedTo  string             `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	DueDate     time.Time          `bson:"dueDate" json:"dueDate"`
	Status      TaskStatus         `bson:"status" json:"status"`
	Recurrence  Recurrence         `bson:"recurrence" json:"recurrence"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletedBy string             `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsClosed reports whether the task no longer needs work.
func (t *Task) IsClosed() bool {
	return t.Status == TaskCompleted || t.Status == TaskCancelled
}

// Derive fills defaults, the completion timestamp and the overdue state.
func (t *Task) Derive(now time.Time) {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Recurrence == "" {
		t.Recurrence = RecurrenceNone
	}
	if t.Status == "" {
		t.Status = TaskPending
	}

	if t.Status == TaskCompleted {
		if t.CompletedAt == nil {
			at := now
			t.CompletedAt = &at
		}
		return
	}
	t.CompletedAt = nil
	t.CompletedBy = ""

	if t.IsClosed() {
		return
	}
	switch {
	case t.DueDate.Before(now):
		t.Status = TaskOverdue
	case t.Status == TaskOverdue:
		t.Status = TaskPending
	}
}

// NextDue returns the due date of the next occurrence of a recurring task.
func (t *Task) NextDue() (time.Time, bool) {
	switch t.Recurrence {
	case RecurrenceDaily:
		return t.DueDate.AddDate(0, 0, 1), true
	case RecurrenceWeekly:
		return t.DueDate.AddDate(0, 0, 7), true
	case RecurrenceMonthly:
		return t.DueDate.AddDate(0, 1, 0), true
	}
	return time.Time{}, false
}
