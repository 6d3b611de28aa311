package schedule

import (
	"testing"
	"time"

	"dental-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, doctorID, doctorName, date string, status models.ScheduleStatus, active bool, slots ...models.TimeSlot) models.ScheduleEntry {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return models.ScheduleEntry{
		ID:         id,
		Date:       d,
		DoctorID:   doctorID,
		DoctorName: doctorName,
		Specialty:  "Orthodontics",
		Status:     status,
		IsActive:   active,
		TimeSlots:  slots,
	}
}

func slot(id string, capacity int) models.TimeSlot {
	return models.TimeSlot{ID: id, Start: "09:00", End: "09:30", MaxPatientsPerSlot: capacity, Reason: "walk-ins"}
}

func TestAggregateEmptyInput(t *testing.T) {
	for _, in := range [][]models.ScheduleEntry{nil, {}} {
		res := Aggregate(in, PatientOptions())
		require.NotNil(t, res.Doctors)
		require.NotNil(t, res.DailyAvailability)
		assert.Empty(t, res.Doctors)
		assert.Empty(t, res.DailyAvailability)
	}
}

func TestAggregateEndToEnd(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("e1", "A", "Dr. A", "2025-06-20", models.ScheduleApproved, true, slot("s1", 5)),
		entry("e2", "A", "Dr. A", "2025-06-20", models.SchedulePending, true, slot("s2", 5)),
		entry("e3", "B", "Dr. B", "2025-06-21", models.ScheduleApproved, true, slot("s3", 0)),
	}

	res := Aggregate(entries, PatientOptions())

	require.Len(t, res.Doctors, 2)
	assert.Equal(t, "A", res.Doctors[0].ID)
	assert.Equal(t, "B", res.Doctors[1].ID)

	require.Len(t, res.DailyAvailability["2025-06-20"], 1)
	assert.Equal(t, "A", res.DailyAvailability["2025-06-20"][0].DoctorID)
	assert.Equal(t, "s1", res.DailyAvailability["2025-06-20"][0].Slot.ID)
	assert.Empty(t, res.DailyAvailability["2025-06-21"])
}

func TestAggregateStaffViewKeepsZeroCapacity(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("e3", "B", "Dr. B", "2025-06-21", models.ScheduleApproved, true, slot("s3", 0), slot("s4", -1)),
	}

	staff := Aggregate(entries, StaffOptions())
	require.Len(t, staff.DailyAvailability["2025-06-21"], 2)
	assert.Equal(t, "walk-ins", staff.DailyAvailability["2025-06-21"][0].Slot.Reason)

	patient := Aggregate(entries, PatientOptions())
	assert.Empty(t, patient.DailyAvailability["2025-06-21"])
}

func TestAggregatePatientViewHidesReason(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("e1", "A", "Dr. A", "2025-06-20", models.ScheduleApproved, true, slot("s1", 2)),
	}

	res := Aggregate(entries, PatientOptions())
	require.Len(t, res.DailyAvailability["2025-06-20"], 1)
	assert.Empty(t, res.DailyAvailability["2025-06-20"][0].Slot.Reason)
	assert.Equal(t, "walk-ins", entries[0].TimeSlots[0].Reason, "input must not be modified")
}

func TestAggregateIneligibleEntriesNeverContribute(t *testing.T) {
	statuses := []models.ScheduleStatus{
		models.SchedulePending, models.ScheduleReAssigned, models.ScheduleRejected, models.ScheduleCancelled,
	}

	var entries []models.ScheduleEntry
	for i, st := range statuses {
		entries = append(entries, entry(string(rune('a'+i)), "A", "Dr. A", "2025-06-20", st, true, slot("x", 5)))
	}
	entries = append(entries, entry("inactive", "A", "Dr. A", "2025-06-20", models.ScheduleApproved, false, slot("y", 5)))

	for _, opts := range []Options{PatientOptions(), StaffOptions()} {
		res := Aggregate(entries, opts)
		assert.Empty(t, res.DailyAvailability)
		assert.Len(t, res.Doctors, 1)
	}
}

func TestAggregateFirstDoctorOccurrenceWins(t *testing.T) {
	first := entry("e1", "A", "Dr. A", "2025-06-20", models.SchedulePending, true)
	second := entry("e2", "A", "Dr. Renamed", "2025-06-21", models.ScheduleApproved, true)
	second.Specialty = "Surgery"

	res := Aggregate([]models.ScheduleEntry{first, second}, PatientOptions())
	require.Len(t, res.Doctors, 1)
	assert.Equal(t, "Dr. A", res.Doctors[0].Name)
	assert.Equal(t, "Orthodontics", res.Doctors[0].Specialty)
	assert.Equal(t, AvatarColor("Dr. A"), res.Doctors[0].Color)
}

func TestAggregateMissingDoctorName(t *testing.T) {
	res := Aggregate([]models.ScheduleEntry{entry("e1", "A", "", "2025-06-20", models.ScheduleApproved, true)}, PatientOptions())
	require.Len(t, res.Doctors, 1)
	assert.Equal(t, UnknownDoctorName, res.Doctors[0].Name)
	assert.Equal(t, AvatarColor(UnknownDoctorName), res.Doctors[0].Color)
}

func TestAggregatePreservesSlotInputOrder(t *testing.T) {
	late := models.TimeSlot{ID: "late", Start: "16:00", End: "16:30", MaxPatientsPerSlot: 1}
	early := models.TimeSlot{ID: "early", Start: "08:00", End: "08:30", MaxPatientsPerSlot: 1}
	entries := []models.ScheduleEntry{
		entry("e1", "A", "Dr. A", "2025-06-20", models.ScheduleApproved, true, late),
		entry("e2", "B", "Dr. B", "2025-06-20", models.ScheduleApproved, true, early),
	}

	res := Aggregate(entries, PatientOptions())
	got := res.DailyAvailability["2025-06-20"]
	require.Len(t, got, 2)
	assert.Equal(t, "late", got[0].Slot.ID)
	assert.Equal(t, "early", got[1].Slot.ID)
}

func TestAggregateIsDeterministic(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("e1", "A", "Dr. A", "2025-06-20", models.ScheduleApproved, true, slot("s1", 5)),
		entry("e3", "B", "Dr. B", "2025-06-22", models.ScheduleApproved, true, slot("s3", 3)),
	}

	assert.Equal(t, Aggregate(entries, PatientOptions()), Aggregate(entries, PatientOptions()))
	assert.Equal(t, []string{"2025-06-20", "2025-06-22"}, Aggregate(entries, PatientOptions()).Dates())
}

func TestAggregateTimestampDatesAcrossHostZones(t *testing.T) {
	for _, loc := range []*time.Location{time.FixedZone("UTC-8", -8*3600), time.FixedZone("UTC+10", 10*3600)} {
		prev := time.Local
		time.Local = loc

		e := entry("e1", "A", "Dr. A", "2025-06-20T00:00:00.000Z", models.ScheduleApproved, true, slot("s1", 1))
		res := Aggregate([]models.ScheduleEntry{e}, PatientOptions())
		assert.Contains(t, res.DailyAvailability, "2025-06-20", loc.String())

		time.Local = prev
	}
}

func TestResultForDoctor(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("e1", "A", "Dr. A", "2025-06-20", models.ScheduleApproved, true, slot("s1", 5)),
		entry("e2", "B", "Dr. B", "2025-06-20", models.ScheduleApproved, true, slot("s2", 5)),
	}

	res := Aggregate(entries, PatientOptions())
	only := res.ForDoctor("B")
	require.Len(t, only["2025-06-20"], 1)
	assert.Equal(t, "s2", only["2025-06-20"][0].Slot.ID)

	d, ok := res.Doctor("B")
	assert.True(t, ok)
	assert.Equal(t, "Dr. B", d.Name)
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("")
	assert.True(t, ok)
	assert.Equal(t, PatientView, v)

	v, ok = ParseView("staff")
	assert.True(t, ok)
	assert.Equal(t, StaffView, v)

	_, ok = ParseView("admin")
	assert.False(t, ok)
}
