package prescription

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/medremind/medremind-backend/internal/types"
)

const (
	defaultHorizonDays     = 7
	maxHorizonDays         = 365
	defaultAppointmentTime = "09:00"
)

// BuildPlan expands the de-duplicated record set into a dated reminder
// calendar starting at start.
//
// A medication is never dropped for lack of information: missing timing and
// frequency degrade to the documented default schedule with the instance
// flagged and the medication listed for review, because a silently omitted
// reminder is a worse failure than an over-broad one the patient can adjust.
// Instances that cannot be normalized to a valid calendar value are excluded
// and tallied in Skipped, never surfaced as an error.
func BuildPlan(doc types.ExtractedDocument, start time.Time) types.ReminderPlan {
	plan := types.ReminderPlan{
		Summary: types.ScheduleSummary{MedicationsNeedingReview: []types.ReviewItem{}},
	}
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	var minDate, maxDate string
	record := func(date string) {
		if minDate == "" || date < minDate {
			minDate = date
		}
		if maxDate == "" || date > maxDate {
			maxDate = date
		}
	}

	for _, med := range doc.Medications {
		times, isDefault := resolveTimes(med)
		if isDefault {
			plan.Summary.MedicationsWithDefaultSchedule++
			plan.Summary.MedicationsNeedingReview = append(plan.Summary.MedicationsNeedingReview, types.ReviewItem{
				Name:            med.Name,
				Reason:          "no usable timing or frequency could be read for this medication",
				Suggestion:      "reminders use the default 07:00/12:00/20:00 schedule; adjust the times to match the prescription, and never change dose or frequency on your own",
				SourceSpanIndex: med.SourceSpanIndex,
			})
		}
		horizon := horizonDays(med.DurationText)
		for day := 0; day < horizon; day++ {
			date := startDay.AddDate(0, 0, day).Format("2006-01-02")
			for _, clock := range times {
				hm, ok := normalizeClock(clock)
				if !ok {
					plan.Skipped++
					continue
				}
				plan.Medications = append(plan.Medications, types.ReminderInstance{
					ID:                uuid.NewString(),
					Kind:              types.ReminderMedication,
					RefName:           med.Name,
					Date:              date,
					Time:              hm,
					IsDefaultSchedule: isDefault,
					Enabled:           true,
				})
				record(date)
			}
		}
	}

	// Appointments are single events, never expanded across a horizon.
	// A dateless appointment cannot be placed on the calendar; it counts
	// toward Skipped like any other unplaceable instance.
	for _, appt := range doc.Appointments {
		if appt.Date == nil {
			plan.Skipped++
			continue
		}
		if _, err := time.Parse("2006-01-02", *appt.Date); err != nil {
			plan.Skipped++
			continue
		}
		clock := defaultAppointmentTime
		if appt.Time != nil {
			hm, ok := normalizeClock(*appt.Time)
			if !ok {
				plan.Skipped++
				continue
			}
			clock = hm
		}
		plan.Appointments = append(plan.Appointments, types.ReminderInstance{
			ID:      uuid.NewString(),
			Kind:    types.ReminderAppointment,
			RefName: appt.Type,
			Date:    *appt.Date,
			Time:    clock,
			Enabled: true,
		})
		record(*appt.Date)
	}

	plan.Summary.TotalReminders = len(plan.Medications) + len(plan.Appointments)
	if minDate == "" {
		minDate = startDay.Format("2006-01-02")
		maxDate = minDate
	}
	plan.Summary.DateRange = types.DateRange{Start: minDate, End: maxDate}
	return plan
}

// resolveTimes picks the time-of-day list for one medication, in falling
// priority: explicit timing tokens, frequency-derived times, documented
// default. The returned bool marks the default case.
func resolveTimes(m types.Medication) ([]string, bool) {
	var times []string
	seen := map[string]bool{}
	for _, tok := range m.Timing {
		if clock, ok := timingClock[tok]; ok && !seen[clock] {
			times = append(times, clock)
			seen[clock] = true
		}
	}
	if len(times) > 0 {
		return times, false
	}
	if m.FrequencyPerDay != nil && *m.FrequencyPerDay > 0 {
		n := *m.FrequencyPerDay
		if t, ok := frequencyTimes[n]; ok {
			return t, false
		}
		return spreadTimes(n), false
	}
	return defaultScheduleTimes, true
}

// spreadTimes handles frequencies above the lookup table by spacing doses
// evenly across waking hours (06:00 to 22:00).
func spreadTimes(n int) []string {
	if n < 2 {
		return frequencyTimes[1]
	}
	const startMin, endMin = 6 * 60, 22 * 60
	step := (endMin - startMin) / (n - 1)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		m := startMin + i*step
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}

// horizonDays parses the duration text into a day count, with the default
// horizon when missing or unreadable. Missing duration stacks with missing
// timing: a medication with no scheduling metadata at all still yields a
// full default week of reminders rather than zero.
func horizonDays(durationText *string) int {
	if durationText == nil {
		return defaultHorizonDays
	}
	m := durationRe.FindStringSubmatch(*durationText)
	if m == nil {
		return defaultHorizonDays
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultHorizonDays
	}
	switch foldText(m[2]) {
	case "tuần":
		n *= 7
	case "tháng":
		n *= 30
	}
	if n > maxHorizonDays {
		n = maxHorizonDays
	}
	return n
}

func normalizeClock(s string) (string, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", false
	}
	return t.Format("15:04"), true
}
