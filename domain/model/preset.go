package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PresetPrefix identifies the bot's pinned preset message among a
// channel's pins. At most one such message exists per channel.
const PresetPrefix = "These are our favourite items:"

// PresetMessage is a reusable numbered item list backed by a single
// pinned message. The full body is regenerated on every mutation.
type PresetMessage struct {
	ChannelID string
	Timestamp string
	Items     []string
}

func NewPresetMessage(itemsText string) *PresetMessage {
	return &PresetMessage{Items: ParseCommaList(itemsText)}
}

// ParsePresetMessage rebuilds the item list from a pinned message body.
// Only lines of the form "N. item" are items, everything else is ignored.
func ParsePresetMessage(content string) *PresetMessage {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		number, rest, ok := strings.Cut(strings.TrimSpace(line), ".")
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(number); err != nil {
			continue
		}
		if item := strings.TrimSpace(rest); item != "" {
			items = append(items, item)
		}
	}
	return &PresetMessage{Items: items}
}

func (p *PresetMessage) AddItems(itemsText string) {
	p.Items = append(p.Items, ParseCommaList(itemsText)...)
}

// RemoveItem removes by the 1-based index shown to the user.
func (p *PresetMessage) RemoveItem(index int) error {
	if index < 1 || index > len(p.Items) {
		return fmt.Errorf("item %d does not exist, the preset has %d items", index, len(p.Items))
	}
	p.Items = append(p.Items[:index-1], p.Items[index:]...)
	return nil
}

func (p *PresetMessage) MessageContent() string {
	var sb strings.Builder
	sb.WriteString(PresetPrefix + "\n")
	for i, item := range p.Items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
	}
	return sb.String()
}

// ParseCommaList splits a comma-separated item list, trimming whitespace
// and dropping empty entries.
func ParseCommaList(raw string) []string {
	var result []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
