package models

import "time"

// ConsultationStatus tracks a remote consultation
type ConsultationStatus string

const (
	ConsultationScheduled  ConsultationStatus = "scheduled"
	ConsultationWaiting    ConsultationStatus = "waiting"
	ConsultationInProgress ConsultationStatus = "in-progress"
	ConsultationCompleted  ConsultationStatus = "completed"
)

// RemoteVitals are readings streamed from a patient's home device
type RemoteVitals struct {
	HeartRate     int       `json:"heart_rate" yaml:"heart_rate"`
	SpO2          int       `json:"spo2" yaml:"spo2"`
	BloodPressure string    `json:"blood_pressure,omitempty" yaml:"blood_pressure"`
	DeviceStatus  string    `json:"device_status" yaml:"device_status"` // connected, offline
	LastUpdate    time.Time `json:"last_update" yaml:"last_update"`
}

// TeleConsultation is a scheduled or running remote visit
type TeleConsultation struct {
	ID            string             `json:"id" yaml:"id" db:"id"`
	PatientName   string             `json:"patient_name" yaml:"patient_name" db:"patient_name"`
	PatientID     string             `json:"patient_id" yaml:"patient_id" db:"patient_id"`
	ScheduledTime time.Time          `json:"scheduled_time" yaml:"scheduled_time" db:"scheduled_time"`
	Status        ConsultationStatus `json:"status" yaml:"status" db:"status"`
	Reason        string             `json:"reason" yaml:"reason" db:"reason"`
	RemoteVitals  *RemoteVitals      `json:"remote_vitals,omitempty" yaml:"remote_vitals" db:"remote_vitals"`
	Symptoms      []string           `json:"symptoms" yaml:"symptoms" db:"symptoms"`
}

// TableName returns the table name for the TeleConsultation model
func (TeleConsultation) TableName() string {
	return "tele_consultations"
}

// DeviceOffline reports whether the remote monitoring device is offline
func (c TeleConsultation) DeviceOffline() bool {
	return c.RemoteVitals != nil && c.RemoteVitals.DeviceStatus == "offline"
}
