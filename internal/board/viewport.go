package board

import "time"

// ZoomLevel is a discrete time-axis granularity, ordered fine to coarse.
type ZoomLevel string

const (
	ZoomHour    ZoomLevel = "hour"
	ZoomDay     ZoomLevel = "day"
	ZoomWeek    ZoomLevel = "week"
	ZoomMonth   ZoomLevel = "month"
	ZoomQuarter ZoomLevel = "quarter"
	ZoomYear    ZoomLevel = "year"
)

var zoomOrder = []ZoomLevel{ZoomHour, ZoomDay, ZoomWeek, ZoomMonth, ZoomQuarter, ZoomYear}

// viewport owns the visible time window and zoom granularity.
type viewport struct {
	zoom  ZoomLevel
	start time.Time
	end   time.Time
}

func newViewport(zoom ZoomLevel, now time.Time) viewport {
	v := viewport{zoom: zoom}
	v.start, v.end = rangeFor(zoom, now)
	return v
}

// SetZoom switches granularity, recentering the window on the current
// view's midpoint.
func (v *viewport) SetZoom(level ZoomLevel) {
	if !validZoom(level) {
		return
	}
	center := v.start.Add(v.end.Sub(v.start) / 2)
	v.zoom = level
	v.start, v.end = rangeFor(level, center)
}

// ZoomIn moves one level finer; ZoomOut one level coarser. Both recenter on
// the midpoint and report whether the level changed.
func (v *viewport) ZoomIn() bool {
	idx := zoomIndex(v.zoom)
	if idx <= 0 {
		return false
	}
	v.SetZoom(zoomOrder[idx-1])
	return true
}

func (v *viewport) ZoomOut() bool {
	idx := zoomIndex(v.zoom)
	if idx < 0 || idx >= len(zoomOrder)-1 {
		return false
	}
	v.SetZoom(zoomOrder[idx+1])
	return true
}

// JumpToNow recenters the window on the current instant.
func (v *viewport) JumpToNow(now time.Time) {
	v.start, v.end = rangeFor(v.zoom, now)
}

// Pan shifts the window by steps of one eighth of its span, keeping the
// span width intact.
func (v *viewport) Pan(steps int) {
	span := v.end.Sub(v.start)
	shift := span / 8 * time.Duration(steps)
	v.start = v.start.Add(shift)
	v.end = v.end.Add(shift)
}

// rangeFor computes the window for a zoom level centered on an instant.
// Start normalizes to midnight and end to end-of-day for levels of a day or
// coarser; quarter and year snap to calendar boundaries.
func rangeFor(level ZoomLevel, center time.Time) (time.Time, time.Time) {
	switch level {
	case ZoomHour:
		return center.Add(-6 * time.Hour), center.Add(6 * time.Hour)
	case ZoomDay:
		return startOfDay(center.AddDate(0, 0, -3)), endOfDay(center.AddDate(0, 0, 3))
	case ZoomWeek:
		return startOfDay(center.AddDate(0, 0, -10)), endOfDay(center.AddDate(0, 0, 10))
	case ZoomMonth:
		return startOfDay(center.AddDate(0, 0, -14)), endOfDay(center.AddDate(0, 0, 13))
	case ZoomQuarter:
		quarterStart := time.Date(center.Year(), center.Month()-(center.Month()-1)%3, 1, 0, 0, 0, 0, center.Location())
		return quarterStart, endOfDay(quarterStart.AddDate(0, 3, -1))
	case ZoomYear:
		yearStart := time.Date(center.Year(), time.January, 1, 0, 0, 0, 0, center.Location())
		return yearStart, endOfDay(time.Date(center.Year(), time.December, 31, 0, 0, 0, 0, center.Location()))
	}
	return startOfDay(center.AddDate(0, 0, -14)), endOfDay(center.AddDate(0, 0, 13))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func validZoom(level ZoomLevel) bool {
	return zoomIndex(level) >= 0
}

func zoomIndex(level ZoomLevel) int {
	for i, z := range zoomOrder {
		if z == level {
			return i
		}
	}
	return -1
}
