package model

import "time"

// リアクションはワークスペースのカスタム絵文字
type VoteMarker string

const (
	YesMarker   VoteMarker = "tickyes"
	MaybeMarker VoteMarker = "wavemaybe"
	NoMarker    VoteMarker = "crossno"
)

func (m VoteMarker) String() string {
	return string(m)
}

// Display returns the marker as Slack renders it in message text.
func (m VoteMarker) Display() string {
	return ":" + string(m) + ":"
}

// VoteMarkers returns the three vote markers in the order they are
// attached to a new item message.
func VoteMarkers() []VoteMarker {
	return []VoteMarker{YesMarker, MaybeMarker, NoMarker}
}

type DayMarker string

var dayMarkers = [7]DayMarker{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

func (m DayMarker) String() string {
	return string(m)
}

func (m DayMarker) Display() string {
	return ":" + string(m) + ":"
}

func DayMarkerFor(day time.Weekday) DayMarker {
	return dayMarkers[day]
}

// DayOf resolves a reaction name back to its weekday.
func DayOf(name string) (time.Weekday, bool) {
	for day, marker := range dayMarkers {
		if string(marker) == name {
			return time.Weekday(day), true
		}
	}
	return 0, false
}

// DayReactionsFrom returns all seven day markers rotated so that start
// comes first. The anchor message gets its reactions in this order so the
// first one voters see is today.
func DayReactionsFrom(start time.Weekday) []DayMarker {
	result := make([]DayMarker, 0, len(dayMarkers))
	for i := range dayMarkers {
		result = append(result, dayMarkers[(int(start)+i)%len(dayMarkers)])
	}
	return result
}
