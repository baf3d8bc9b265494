package timetable

import (
	"fmt"
	"strconv"
	"time"

	"github.com/noah-isme/tutoring-api/pkg/config"
)

// Slot identifies one unit of the weekly grid: a weekday letter followed
// by "B" (before school), a period number, or "A" (after school).
// Examples: "MB", "M1", "M8", "MA", "R3".
type Slot string

// Day is one school day included in the grid.
type Day struct {
	Letter  string
	Name    string
	Weekday time.Weekday
	Periods int
}

var (
	dayLetters  = [7]string{"M", "T", "W", "R", "F", "S", "U"}
	dayNames    = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	dayWeekdays = [7]time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
)

// Grid is the canonical ordered slot set for the week. It is built once
// from configuration and never mutated afterwards.
type Grid struct {
	days        []Day
	slots       []Slot
	periodNames []string

	index map[Slot]slotInfo
}

type slotInfo struct {
	day      Day
	position int // 0 = before school, 1..N = period, N+1 = after school
}

// New builds the grid from the schedule configuration. Days with zero
// periods are dropped. The resulting slot order is weekday order, then
// before school, periods ascending, after school.
func New(cfg config.ScheduleConfig) (*Grid, error) {
	g := &Grid{
		periodNames: cfg.PeriodNames,
		index:       make(map[Slot]slotInfo),
	}

	for i, count := range cfg.DayPeriods {
		if count <= 0 {
			continue
		}
		if count > len(cfg.PeriodNames) {
			return nil, fmt.Errorf("day %s has %d periods but only %d period names configured",
				dayNames[i], count, len(cfg.PeriodNames))
		}

		day := Day{
			Letter:  dayLetters[i],
			Name:    dayNames[i],
			Weekday: dayWeekdays[i],
			Periods: count,
		}
		g.days = append(g.days, day)

		g.addSlot(Slot(day.Letter+"B"), day, 0)
		for p := 1; p <= count; p++ {
			g.addSlot(Slot(day.Letter+strconv.Itoa(p)), day, p)
		}
		g.addSlot(Slot(day.Letter+"A"), day, count+1)
	}

	if len(g.slots) == 0 {
		return nil, fmt.Errorf("schedule configuration yields no school days")
	}
	return g, nil
}

func (g *Grid) addSlot(s Slot, day Day, position int) {
	g.slots = append(g.slots, s)
	g.index[s] = slotInfo{day: day, position: position}
}

// Slots returns every slot of the week in canonical order.
func (g *Grid) Slots() []Slot {
	out := make([]Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Days returns the included school days in weekday order.
func (g *Grid) Days() []Day {
	out := make([]Day, len(g.days))
	copy(out, g.days)
	return out
}

// Count returns the total number of slots in the week.
func (g *Grid) Count() int {
	return len(g.slots)
}

// Contains reports whether s is part of the grid.
func (g *Grid) Contains(s Slot) bool {
	_, ok := g.index[s]
	return ok
}

// DayOf returns the school day a slot belongs to.
func (g *Grid) DayOf(s Slot) (Day, bool) {
	info, ok := g.index[s]
	return info.day, ok
}

// Position returns the slot's place within its day: 0 for before school,
// 1..N for periods, N+1 for after school.
func (g *Grid) Position(s Slot) (int, bool) {
	info, ok := g.index[s]
	return info.position, ok
}

// PeriodLabel returns the human name of the slot's period, such as
// "Before School", "3rd Period" or "After School".
func (g *Grid) PeriodLabel(s Slot) string {
	info, ok := g.index[s]
	if !ok {
		return string(s)
	}
	switch {
	case info.position == 0:
		return "Before School"
	case info.position > info.day.Periods:
		return "After School"
	default:
		return g.periodNames[info.position-1] + " Period"
	}
}

// DisplayLabel returns the slot's full display name, such as
// "Monday Before", "Monday 3rd" or "Monday After".
func (g *Grid) DisplayLabel(s Slot) string {
	info, ok := g.index[s]
	if !ok {
		return string(s)
	}
	switch {
	case info.position == 0:
		return info.day.Name + " Before"
	case info.position > info.day.Periods:
		return info.day.Name + " After"
	default:
		return info.day.Name + " " + g.periodNames[info.position-1]
	}
}

// NextOccurrence returns the date of the next calendar occurrence of the
// slot's weekday, counting from the day after `from`. When `from` falls
// on the slot's weekday the result is one week out.
func (g *Grid) NextOccurrence(s Slot, from time.Time) (time.Time, error) {
	info, ok := g.index[s]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown slot %q", s)
	}

	daysAhead := mondayIndex(info.day.Weekday) - mondayIndex(from.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}
	next := from.AddDate(0, 0, daysAhead)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location()), nil
}

// mondayIndex maps time.Weekday (Sunday = 0) onto a Monday = 0 week.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
