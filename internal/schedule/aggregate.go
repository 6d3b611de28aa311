package schedule

import (
	"sort"

	"dental-dashboard/internal/models"
)

type View string

const (
	PatientView View = "patient"
	StaffView   View = "staff"
)

func ParseView(s string) (View, bool) {
	switch View(s) {
	case PatientView, "":
		return PatientView, true
	case StaffView:
		return StaffView, true
	}
	return "", false
}

// Options controls which eligible slots reach the availability map.
type Options struct {
	View View
	// RequirePositiveCapacity drops slots with MaxPatientsPerSlot <= 0.
	RequirePositiveCapacity bool
}

func PatientOptions() Options {
	return Options{View: PatientView, RequirePositiveCapacity: true}
}

func StaffOptions() Options {
	return Options{View: StaffView, RequirePositiveCapacity: false}
}

type Result struct {
	Doctors           []models.DoctorDirectoryEntry `json:"doctors"`
	DailyAvailability models.DailyAvailabilityMap   `json:"dailyAvailability"`
}

// Aggregate folds schedule entries into a doctor directory and a date-indexed
// availability map. It is pure: the input is never modified and equal inputs
// give equal results. The first entry seen for a doctor owns the directory
// metadata. Only Approved and active entries contribute slots, in input order.
func Aggregate(entries []models.ScheduleEntry, opts Options) Result {
	res := Result{
		Doctors:           []models.DoctorDirectoryEntry{},
		DailyAvailability: models.DailyAvailabilityMap{},
	}

	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if _, ok := seen[entry.DoctorID]; !ok {
			seen[entry.DoctorID] = struct{}{}

			name := entry.DoctorName
			if name == "" {
				name = UnknownDoctorName
			}
			res.Doctors = append(res.Doctors, models.DoctorDirectoryEntry{
				ID:        entry.DoctorID,
				Name:      name,
				Specialty: entry.Specialty,
				Color:     AvatarColor(name),
			})
		}

		if !entry.Eligible() {
			continue
		}

		key := entry.Date.Key()
		if key == "" {
			continue
		}

		for _, slot := range entry.TimeSlots {
			if opts.RequirePositiveCapacity && slot.MaxPatientsPerSlot <= 0 {
				continue
			}
			if opts.View != StaffView {
				slot.Reason = ""
			}
			res.DailyAvailability[key] = append(res.DailyAvailability[key], models.DoctorSlot{
				DoctorID: entry.DoctorID,
				Slot:     slot,
			})
		}
	}

	return res
}

// Dates returns the keys of the availability map in calendar order.
func (r Result) Dates() []string {
	dates := make([]string, 0, len(r.DailyAvailability))
	for d := range r.DailyAvailability {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func (r Result) Doctor(id string) (models.DoctorDirectoryEntry, bool) {
	for _, d := range r.Doctors {
		if d.ID == id {
			return d, true
		}
	}
	return models.DoctorDirectoryEntry{}, false
}

// ForDoctor narrows the availability map to one doctor's slots.
func (r Result) ForDoctor(doctorID string) models.DailyAvailabilityMap {
	out := models.DailyAvailabilityMap{}
	for date, slots := range r.DailyAvailability {
		for _, s := range slots {
			if s.DoctorID == doctorID {
				out[date] = append(out[date], s)
			}
		}
	}
	return out
}
