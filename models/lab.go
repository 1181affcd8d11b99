package models

import "time"

// LabPriority orders work in the lab queue
type LabPriority string

const (
	PriorityRoutine LabPriority = "routine"
	PriorityUrgent  LabPriority = "urgent"
	PriorityStat    LabPriority = "stat"
)

// Rank returns a sort key where higher means more urgent
func (p LabPriority) Rank() int {
	switch p {
	case PriorityStat:
		return 2
	case PriorityUrgent:
		return 1
	default:
		return 0
	}
}

// LabOrderStatus tracks an order through the lab
type LabOrderStatus string

const (
	LabOrderPending    LabOrderStatus = "pending"
	LabOrderProcessing LabOrderStatus = "processing"
	LabOrderCompleted  LabOrderStatus = "completed"
)

// LabOrder is a test requested for a patient
type LabOrder struct {
	ID          string         `json:"id" yaml:"id" db:"id"`
	PatientName string         `json:"patient_name" yaml:"patient_name" db:"patient_name"`
	PatientID   string         `json:"patient_id" yaml:"patient_id" db:"patient_id"`
	Requester   string         `json:"requester" yaml:"requester" db:"requester"`
	TestName    string         `json:"test_name" yaml:"test_name" db:"test_name"`
	Priority    LabPriority    `json:"priority" yaml:"priority" db:"priority"`
	Status      LabOrderStatus `json:"status" yaml:"status" db:"status"`
	ReceivedAt  time.Time      `json:"received_at" yaml:"received_at" db:"received_at"`
	SpecimenID  string         `json:"specimen_id" yaml:"specimen_id" db:"specimen_id"`
}

// TableName returns the table name for the LabOrder model
func (LabOrder) TableName() string {
	return "lab_orders"
}

// LabResultAnalyte is one measured value of a completed order
type LabResultAnalyte struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Unit  string `json:"unit" yaml:"unit"`
	Range string `json:"range" yaml:"range"`
	Flag  string `json:"flag" yaml:"flag"` // normal, abnormal, critical
}
