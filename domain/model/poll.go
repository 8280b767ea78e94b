package model

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// AnchorPrefix identifies the bot message announcing a planning. The
// history scanner stops at the newest message carrying it.
const AnchorPrefix = "We would like to plan"

// MaxMessageLength is Slack's message size ceiling; result pages never
// exceed it unless a single item's own rendering already does.
const MaxMessageLength = 2000

const staleAfter = 7 * 24 * time.Hour

// ItemResult holds the vote rosters of one item message. Bot accounts are
// already excluded from all name lists.
type ItemResult struct {
	Label          string
	YesUserNames   []string
	MaybeUserNames []string
	NoUserNames    []string
}

// PollResult is the aggregate view of one planning, rebuilt from the
// channel's messages and reactions on every query. It is never persisted.
type PollResult struct {
	ChannelID    string
	Timestamp    string
	CreatedAt    time.Time
	DayUserNames map[time.Weekday][]string
	Items        []ItemResult
}

// NewPollResult initializes every weekday with an empty roster so that
// lookups never hit a missing key.
func NewPollResult(channelID, timestamp string, createdAt time.Time) *PollResult {
	days := make(map[time.Weekday][]string, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		days[day] = []string{}
	}
	return &PollResult{
		ChannelID:    channelID,
		Timestamp:    timestamp,
		CreatedAt:    createdAt,
		DayUserNames: days,
	}
}

// IsStale reports whether a planning created at createdAt is more than a
// week old. Stale plannings still produce results, the caller only warns.
func IsStale(createdAt, now time.Time) bool {
	return now.Sub(createdAt) > staleAfter
}

func (r *PollResult) Stale(now time.Time) bool {
	return IsStale(r.CreatedAt, now)
}

// BuildResultMessages renders the full tally, ranked by descending Yes
// count with stable ties, split into pages that fit MaxMessageLength.
func (r *PollResult) BuildResultMessages() []string {
	items := make([]ItemResult, 0, len(r.Items))
	for _, item := range r.Items {
		if len(item.YesUserNames) > 0 || len(item.MaybeUserNames) > 0 {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return len(items[i].YesUserNames) > len(items[j].YesUserNames)
	})

	var messages []string
	var sb strings.Builder
	sb.WriteString("These are the results of the last planning:\n")
	for _, item := range items {
		block := item.resultBlock()
		if sb.Len()+len(block) > MaxMessageLength {
			messages = append(messages, sb.String())
			sb.Reset()
		}
		sb.WriteString(block)
	}
	return append(messages, sb.String())
}

// No-voters are intentionally left out of the tally.
func (item ItemResult) resultBlock() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n", item.Label)
	if len(item.YesUserNames) > 0 {
		fmt.Fprintf(&sb, "    %s %s\n", YesMarker.Display(), strings.Join(item.YesUserNames, ", "))
	}
	if len(item.MaybeUserNames) > 0 {
		fmt.Fprintf(&sb, "    %s %s\n", MaybeMarker.Display(), strings.Join(item.MaybeUserNames, ", "))
	}
	return sb.String()
}

// BuildTodayMessage renders who is available on now's weekday and the top
// three items ranked by how many of their voters are available today.
// Yes votes count 1.0 and Maybe votes 0.5.
func (r *PollResult) BuildTodayMessage(now time.Time) string {
	day := now.Weekday()
	available := r.DayUserNames[day]

	var sb strings.Builder
	fmt.Fprintf(&sb, "These are the results for today, %s:\n", DayMarkerFor(day).Display())
	sb.WriteString("Available today:\n")
	for _, name := range available {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	sb.WriteString("\nMost voted items:\n")

	type scoredItem struct {
		item  ItemResult
		score float64
	}
	ranked := make([]scoredItem, 0, len(r.Items))
	for _, item := range r.Items {
		if len(item.YesUserNames) == 0 {
			continue
		}
		score := float64(countAvailable(item.YesUserNames, available)) +
			0.5*float64(countAvailable(item.MaybeUserNames, available))
		ranked = append(ranked, scoredItem{item: item, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	for _, s := range ranked {
		users := fmt.Sprintf("(%s)", strings.Join(s.item.YesUserNames, ", "))
		if len(s.item.MaybeUserNames) > 0 {
			users += fmt.Sprintf(" ~ _(%s)_", strings.Join(s.item.MaybeUserNames, ", "))
		}
		fmt.Fprintf(&sb, "*%s* %s\n", s.item.Label, users)
	}
	return sb.String()
}

func countAvailable(names, available []string) int {
	count := 0
	for _, name := range names {
		if slices.Contains(available, name) {
			count++
		}
	}
	return count
}
