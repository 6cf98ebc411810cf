package schoolweek

import (
	"encoding/json"
	"fmt"
	"time"
)

// Block is one user-curated entry of a class week schedule. Blocks always
// cover seven calendar days; a break block advances the calendar without
// advancing the academic week counter.
type Block struct {
	WeekNumber int    `json:"week_number"`
	StartDate  string `json:"start_date"`
	IsBreak    bool   `json:"is_break"`
}

// ParseScheduleConfig decodes the persisted schedule_config JSON. The value
// is stored either as an array or as a JSON-encoded string holding one, so
// both shapes are accepted. Callers treat any error as "no schedule" and
// fall back to naive 7-day-block numbering.
func ParseScheduleConfig(raw []byte) ([]Block, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var blocks []Block
	if err := json.Unmarshal(raw, &blocks); err == nil {
		return blocks, nil
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("malformed schedule config: %w", err)
	}
	if err := json.Unmarshal([]byte(nested), &blocks); err != nil {
		return nil, fmt.Errorf("malformed schedule config: %w", err)
	}
	return blocks, nil
}

// WeekNumber computes the academic week containing current, relative to the
// Monday-aligned week containing start. Weeks are 1-based; 0 denotes a date
// before the start week or inside a break block. A zero start date yields 0.
func WeekNumber(current, start Date, schedule []Block) int {
	if start.IsZero() {
		return 0
	}

	startMon := MondayOf(start)
	block := startMon.DaysUntil(MondayOf(current)) / 7
	if block < 0 {
		return 0
	}

	table := resolveSchedule(startMon, schedule)
	if len(table) == 0 {
		return block + 1
	}

	if block < len(table) {
		return table[block]
	}

	// Beyond the curated schedule the counter extrapolates at plain 7-day
	// granularity from the last resolved academic week.
	last := 0
	for _, w := range table {
		if w > last {
			last = w
		}
	}
	return last + (block - len(table) + 1)
}

// WeekDates returns the seven calendar dates (Monday through Sunday) of the
// given academic week. It is the exact inverse of WeekNumber. A zero start
// date falls back to the real-world current week.
func WeekDates(week int, start Date, schedule []Block) []Date {
	var monday Date
	switch {
	case start.IsZero():
		monday = MondayOf(DateOf(time.Now()))
	default:
		monday = mondayOfWeek(week, MondayOf(start), schedule)
	}

	dates := make([]Date, 7)
	for i := range dates {
		dates[i] = monday.AddDays(i)
	}
	return dates
}

// CurrentWeek resolves the academic week containing the server clock's now.
func CurrentWeek(now time.Time, start Date, schedule []Block) int {
	return WeekNumber(DateOf(now), start, schedule)
}

// resolveSchedule materialises the curated blocks into a lookup table
// indexed by raw 7-day block offset from the start Monday. Persisted week
// numbers win over inferred ones; break blocks resolve to 0.
func resolveSchedule(startMon Date, schedule []Block) []int {
	if len(schedule) == 0 {
		return nil
	}

	lastBlock := 0
	entries := make(map[int]Block, len(schedule))
	for _, b := range schedule {
		d, err := ParseDate(b.StartDate)
		if err != nil {
			continue
		}
		idx := startMon.DaysUntil(MondayOf(d)) / 7
		if idx < 0 {
			continue
		}
		entries[idx] = b
		if idx > lastBlock {
			lastBlock = idx
		}
	}
	if len(entries) == 0 {
		return nil
	}

	table := make([]int, lastBlock+1)
	academic := 0
	for i := 0; i <= lastBlock; i++ {
		entry, curated := entries[i]
		if curated && entry.IsBreak {
			table[i] = 0
			continue
		}
		academic++
		if curated && entry.WeekNumber > 0 {
			academic = entry.WeekNumber
		}
		table[i] = academic
	}
	return table
}

func mondayOfWeek(week int, startMon Date, schedule []Block) Date {
	if week < 1 {
		return startMon
	}

	table := resolveSchedule(startMon, schedule)
	if len(table) == 0 {
		return startMon.AddDays((week - 1) * 7)
	}

	last := 0
	for i, w := range table {
		if w == week {
			return startMon.AddDays(i * 7)
		}
		if w > last {
			last = w
		}
	}

	// Weeks past the schedule extrapolate one block per week.
	return startMon.AddDays((len(table) + (week - last - 1)) * 7)
}
