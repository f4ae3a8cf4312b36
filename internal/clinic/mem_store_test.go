package clinic_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinova/clinic-scheduling/internal/clinic"
)

// memStore is an in-memory clinic.Store. Each mutating method holds the lock
// for its whole read-check-then-write sequence, mirroring the single
// transaction the pg store runs, so the concurrency tests exercise the same
// atomicity the real store provides.
type memStore struct {
	mu sync.Mutex

	seq        int64
	specs      map[int64]clinic.Specialization
	doctors    map[int64]clinic.Doctor
	patients   map[int64]clinic.Patient
	slots      map[int64]clinic.AvailabilitySlot
	appts      map[int64]clinic.Appointment
	treatments map[int64]clinic.Treatment
}

func newMemStore() *memStore {
	return &memStore{
		specs:      make(map[int64]clinic.Specialization),
		doctors:    make(map[int64]clinic.Doctor),
		patients:   make(map[int64]clinic.Patient),
		slots:      make(map[int64]clinic.AvailabilitySlot),
		appts:      make(map[int64]clinic.Appointment),
		treatments: make(map[int64]clinic.Treatment),
	}
}

func (m *memStore) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *memStore) addSpecialization(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	m.specs[id] = clinic.Specialization{ID: id, Name: name}
	return id
}

func (m *memStore) addDoctor(name string, specializationID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	m.doctors[id] = clinic.Doctor{ID: id, UserID: id, Name: name, SpecializationID: specializationID}
	return id
}

func (m *memStore) addPatient(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	m.patients[id] = clinic.Patient{ID: id, UserID: id, Name: name, ContactInfo: name + "@example.com"}
	return id
}

func (m *memStore) GetDoctor(_ context.Context, id int64) (*clinic.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, clinic.ErrDoctorNotFound
	}
	return &d, nil
}

func (m *memStore) GetPatient(_ context.Context, id int64) (*clinic.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, clinic.ErrPatientNotFound
	}
	return &p, nil
}

func (m *memStore) GetSlot(_ context.Context, id int64) (*clinic.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, clinic.ErrSlotNotFound
	}
	return &s, nil
}

func (m *memStore) GetAppointment(_ context.Context, id int64) (*clinic.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, clinic.ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memStore) CreateSlot(_ context.Context, doctorID int64, date time.Time, startTime string) (*clinic.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.Date.Equal(date) && s.StartTime == startTime {
			return nil, clinic.ErrDuplicateSlot
		}
	}
	id := m.nextID()
	slot := clinic.AvailabilitySlot{ID: id, DoctorID: doctorID, Date: date, StartTime: startTime}
	m.slots[id] = slot
	return &slot, nil
}

func (m *memStore) ListSlots(_ context.Context, doctorID int64, from, to time.Time) ([]clinic.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.AvailabilitySlot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && !s.Date.Before(from) && !s.Date.After(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *memStore) ReleaseSlot(_ context.Context, doctorID int64, date time.Time, startTime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(doctorID, date, startTime)
	return nil
}

func (m *memStore) releaseLocked(doctorID int64, date time.Time, startTime string) {
	for id, s := range m.slots {
		if s.DoctorID == doctorID && s.Date.Equal(date) && s.StartTime == startTime {
			s.IsBooked = false
			m.slots[id] = s
		}
	}
}

func (m *memStore) FindOpenSlots(_ context.Context, specializationID int64, date time.Time) ([]clinic.DoctorAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byDoctor := make(map[int64]*clinic.DoctorAvailability)
	for _, s := range m.slots {
		if s.IsBooked || !s.Date.Equal(date) {
			continue
		}
		doc, ok := m.doctors[s.DoctorID]
		if !ok || doc.IsBlacklisted || doc.SpecializationID != specializationID {
			continue
		}
		entry, ok := byDoctor[doc.ID]
		if !ok {
			entry = &clinic.DoctorAvailability{
				DoctorID:       doc.ID,
				DoctorName:     doc.Name,
				Specialization: m.specs[doc.SpecializationID].Name,
			}
			byDoctor[doc.ID] = entry
		}
		entry.Slots = append(entry.Slots, clinic.OpenSlot{SlotID: s.ID, StartTime: s.StartTime})
	}

	var out []clinic.DoctorAvailability
	for _, entry := range byDoctor {
		sort.Slice(entry.Slots, func(i, j int) bool { return entry.Slots[i].StartTime < entry.Slots[j].StartTime })
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DoctorName < out[j].DoctorName })
	return out, nil
}

func (m *memStore) BookSlot(_ context.Context, slotID, patientID int64) (*clinic.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[slotID]
	if !ok || slot.IsBooked {
		return nil, clinic.ErrSlotUnavailable
	}

	// The partial unique index: at most one non-Cancelled appointment per
	// (doctor, date, time) tuple. Cancelled history never collides.
	for _, a := range m.appts {
		if a.DoctorID == slot.DoctorID && a.Date.Equal(slot.Date) && a.StartTime == slot.StartTime && a.Status != clinic.StatusCancelled {
			return nil, clinic.ErrSchedulingConflict
		}
	}

	slot.IsBooked = true
	m.slots[slotID] = slot

	id := m.nextID()
	appt := clinic.Appointment{
		ID:        id,
		PatientID: patientID,
		DoctorID:  slot.DoctorID,
		Date:      slot.Date,
		StartTime: slot.StartTime,
		Status:    clinic.StatusBooked,
	}
	m.appts[id] = appt
	return &appt, nil
}

func (m *memStore) CancelAppointment(_ context.Context, appointmentID int64) (*clinic.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[appointmentID]
	if !ok || appt.Status != clinic.StatusBooked {
		return nil, clinic.ErrNotCancellable
	}

	appt.Status = clinic.StatusCancelled
	m.appts[appointmentID] = appt
	m.releaseLocked(appt.DoctorID, appt.Date, appt.StartTime)
	return &appt, nil
}

func (m *memStore) CompleteAppointment(_ context.Context, appointmentID, doctorID int64, in clinic.TreatmentInput) (*clinic.Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[appointmentID]
	if !ok || appt.DoctorID != doctorID || appt.Status != clinic.StatusBooked {
		return nil, clinic.ErrInvalidConsultation
	}
	for _, t := range m.treatments {
		if t.AppointmentID == appointmentID {
			return nil, clinic.ErrSchedulingConflict
		}
	}

	appt.Status = clinic.StatusCompleted
	m.appts[appointmentID] = appt

	id := m.nextID()
	treatment := clinic.Treatment{
		ID:            id,
		AppointmentID: appointmentID,
		Diagnosis:     in.Diagnosis,
		Prescription:  in.Prescription,
		Notes:         in.Notes,
		TreatmentDate: time.Now(),
	}
	m.treatments[id] = treatment
	return &treatment, nil
}

func (m *memStore) ListPatientAppointments(_ context.Context, patientID int64) ([]clinic.AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.AppointmentDetail
	for _, a := range m.appts {
		if a.PatientID != patientID {
			continue
		}
		out = append(out, m.detailLocked(a))
	}
	sortDetailsDesc(out)
	return out, nil
}

func (m *memStore) ListDoctorUpcoming(_ context.Context, doctorID int64, from time.Time) ([]clinic.AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.AppointmentDetail
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Status == clinic.StatusBooked && !a.Date.Before(from) {
			out = append(out, m.detailLocked(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *memStore) ListDoctorRecentCompleted(_ context.Context, doctorID int64, limit int) ([]clinic.AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.AppointmentDetail
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Status == clinic.StatusCompleted {
			d := m.detailLocked(a)
			for _, t := range m.treatments {
				if t.AppointmentID == a.ID {
					d.Diagnosis = t.Diagnosis
				}
			}
			out = append(out, d)
		}
	}
	sortDetailsDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetTreatmentByAppointment(_ context.Context, appointmentID int64) (*clinic.Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.treatments {
		if t.AppointmentID == appointmentID {
			return &t, nil
		}
	}
	return nil, clinic.ErrTreatmentNotFound
}

func (m *memStore) ListPatientTreatments(_ context.Context, patientID int64) ([]clinic.TreatmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.TreatmentRecord
	for _, t := range m.treatments {
		appt, ok := m.appts[t.AppointmentID]
		if !ok || appt.PatientID != patientID {
			continue
		}
		doc := m.doctors[appt.DoctorID]
		out = append(out, clinic.TreatmentRecord{
			Treatment:      t,
			DoctorName:     doc.Name,
			Specialization: m.specs[doc.SpecializationID].Name,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TreatmentDate.After(out[j].TreatmentDate) })
	return out, nil
}

func (m *memStore) SetDoctorBlacklist(_ context.Context, doctorID int64, blacklisted bool) (*clinic.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[doctorID]
	if !ok {
		return nil, clinic.ErrDoctorNotFound
	}
	d.IsBlacklisted = blacklisted
	m.doctors[doctorID] = d
	return &d, nil
}

func (m *memStore) CountTotals(_ context.Context) (*clinic.Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &clinic.Totals{
		Doctors:      int64(len(m.doctors)),
		Patients:     int64(len(m.patients)),
		Appointments: int64(len(m.appts)),
	}, nil
}

func (m *memStore) ListAllAppointments(_ context.Context) ([]clinic.AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.AppointmentDetail
	for _, a := range m.appts {
		out = append(out, m.detailLocked(a))
	}
	sortDetailsDesc(out)
	return out, nil
}

func (m *memStore) ListPatients(_ context.Context) ([]clinic.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) ListSpecializations(_ context.Context) ([]clinic.Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.Specialization
	for _, s := range m.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) detailLocked(a clinic.Appointment) clinic.AppointmentDetail {
	doc := m.doctors[a.DoctorID]
	hasTreatment := false
	for _, t := range m.treatments {
		if t.AppointmentID == a.ID {
			hasTreatment = true
		}
	}
	return clinic.AppointmentDetail{
		Appointment:    a,
		PatientName:    m.patients[a.PatientID].Name,
		DoctorName:     doc.Name,
		Specialization: m.specs[doc.SpecializationID].Name,
		HasTreatment:   hasTreatment,
	}
}

func sortDetailsDesc(out []clinic.AppointmentDetail) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].StartTime > out[j].StartTime
	})
}

// requireSlotInvariant asserts the central consistency rule: a slot is booked
// exactly when one non-Cancelled appointment exists at its (doctor, date,
// time). Completion keeps the slot consumed, so Completed rows count toward
// the booked side; only Cancelled rows are pure history.
func requireSlotInvariant(t *testing.T, m *memStore) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.slots {
		active := 0
		for _, a := range m.appts {
			if a.DoctorID == s.DoctorID && a.Date.Equal(s.Date) && a.StartTime == s.StartTime && a.Status != clinic.StatusCancelled {
				active++
			}
		}
		if s.IsBooked {
			require.Equal(t, 1, active, "booked slot %d must have exactly one non-Cancelled appointment", s.ID)
		} else {
			require.Equal(t, 0, active, "free slot %d must have no non-Cancelled appointment", s.ID)
		}
	}
}

// fakeCache records cache traffic so tests can assert invalidation.
type fakeCache struct {
	mu                sync.Mutex
	entries           map[string][]clinic.DoctorAvailability
	invalidations     []string
	specInvalidations []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]clinic.DoctorAvailability)}
}

func cacheKey(specializationID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", specializationID, date.Format(clinic.DayFormat))
}

func (c *fakeCache) Get(_ context.Context, specializationID int64, date time.Time) ([]clinic.DoctorAvailability, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(specializationID, date)]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, specializationID int64, date time.Time, results []clinic.DoctorAvailability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(specializationID, date)] = results
}

func (c *fakeCache) Invalidate(_ context.Context, specializationID int64, date time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(specializationID, date)
	delete(c.entries, key)
	c.invalidations = append(c.invalidations, key)
}

func (c *fakeCache) InvalidateSpecialization(_ context.Context, specializationID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]clinic.DoctorAvailability)
	c.specInvalidations = append(c.specInvalidations, specializationID)
}
