package model

import "time"

// Individual represents a person that can be assigned to time slots.
// The scheduling core treats individuals as read-only reference data.
type Individual struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Department is an organisational unit that needs one person per time slot.
type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimeSlot is a fixed calendar interval eligible for assignment. Date is a
// calendar day in "2006-01-02" form; StartTime and EndTime are wall clock
// times in "15:04:05" form. The fixed-width encodings make lexicographic
// comparison equivalent to chronological comparison.
type TimeSlot struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailabilityWindow states that, for any time slot fully contained within
// [StartTime, EndTime) on Date, the individual's priority is Tier. Multiple
// windows for the same individual and date may overlap; resolution picks the
// first match in store order.
type AvailabilityWindow struct {
	ID           string    `json:"id"`
	IndividualID string    `json:"individual_id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Tier         Tier      `json:"tier"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Contains reports whether the slot is fully covered by the window. The
// window must be on the same date and span the whole slot interval.
func (w AvailabilityWindow) Contains(slot TimeSlot) bool {
	return w.Date == slot.Date &&
		w.StartTime <= slot.StartTime &&
		w.EndTime >= slot.EndTime
}

// StatusScheduled is the status written by the auto-scheduler.
const StatusScheduled = "scheduled"

// Schedule is a committed assignment of one individual to one department for
// one time slot.
type Schedule struct {
	ID           string    `json:"id"`
	IndividualID string    `json:"individual_id"`
	DepartmentID string    `json:"department_id"`
	TimeSlotID   string    `json:"time_slot_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScheduleDetail is a schedule joined with display fields from the
// individual, department and time slot it references. The enrichment is a
// read-side convenience only.
type ScheduleDetail struct {
	Schedule
	IndividualName  string `json:"individual_name"`
	IndividualEmail string `json:"individual_email"`
	DepartmentName  string `json:"department_name"`
	SlotDate        string `json:"slot_date"`
	SlotStartTime   string `json:"slot_start_time"`
	SlotEndTime     string `json:"slot_end_time"`
}
