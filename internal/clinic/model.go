package clinic

import (
	"time"
)

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleDoctor  Role = "Doctor"
	RolePatient Role = "Patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "Booked"
	StatusCompleted AppointmentStatus = "Completed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

// Actor is the authenticated identity a request acts as. It is resolved at the
// HTTP boundary and passed explicitly into every operation that needs it.
type Actor struct {
	Role      Role
	DoctorID  int64
	PatientID int64
}

const (
	DayFormat  = "2006-01-02"
	TimeFormat = "15:04"
)

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

func ValidStartTime(s string) bool {
	_, err := time.Parse(TimeFormat, s)
	return err == nil
}

type Specialization struct {
	ID          int64
	Name        string
	Description string
}

type Doctor struct {
	ID               int64
	UserID           int64
	Name             string
	SpecializationID int64
	ContactInfo      string
	IsBlacklisted    bool
}

type Patient struct {
	ID          int64
	UserID      int64
	Name        string
	ContactInfo string
}

type AvailabilitySlot struct {
	ID        int64
	DoctorID  int64
	Date      time.Time
	StartTime string
	IsBooked  bool
}

type Appointment struct {
	ID        int64
	PatientID int64
	DoctorID  int64
	Date      time.Time
	StartTime string
	Status    AppointmentStatus
}

type Treatment struct {
	ID            int64
	AppointmentID int64
	Diagnosis     string
	Prescription  string
	Notes         string
	TreatmentDate time.Time
}

// AppointmentDetail is an appointment joined with the names the presentation
// layer renders. Diagnosis is only populated for completed-visit listings.
type AppointmentDetail struct {
	Appointment
	PatientName    string
	DoctorName     string
	Specialization string
	HasTreatment   bool
	Diagnosis      string
}

// TreatmentRecord is a treatment joined with the prescribing doctor.
type TreatmentRecord struct {
	Treatment
	DoctorName     string
	Specialization string
}

// OpenSlot is a bookable slot as surfaced by availability search.
type OpenSlot struct {
	SlotID    int64
	StartTime string
}

// DoctorAvailability groups a doctor's open slots for one day of search results.
type DoctorAvailability struct {
	DoctorID       int64
	DoctorName     string
	Specialization string
	Slots          []OpenSlot
}

// DaySlots is one day of a doctor's schedule grid.
type DaySlots struct {
	Date  time.Time
	Slots []AvailabilitySlot
}

// PatientAppointments splits a patient's appointments the way the dashboard
// shows them: Booked today-or-later up top, everything else as history.
type PatientAppointments struct {
	Upcoming []AppointmentDetail
	History  []AppointmentDetail
}

// Totals are the admin dashboard counters.
type Totals struct {
	Doctors      int64
	Patients     int64
	Appointments int64
}
