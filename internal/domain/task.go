package domain

import "time"

const TaskComplianceReminder = "compliance_reminder"

// ReminderOffsets are the nudges scheduled after approval.
var ReminderOffsets = []time.Duration{
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
}

// ScheduledTask is a delayed unit of work. Kind, TrainerID and Step identify
// the task so scheduling it twice keeps a single entry.
type ScheduledTask struct {
	Kind      string    `json:"kind"`
	TrainerID uint      `json:"trainer_id"`
	Step      int       `json:"step"`
	Attempt   int       `json:"attempt,omitempty"`
	RunAt     time.Time `json:"-"`
}
