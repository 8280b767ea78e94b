package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pyama86/slanning-control/domain/model"
	"github.com/slack-go/slack"
)

const msgNoPreset = `No existing preset found, create a new one using "plan preset new"`

func (h *Handler) planPreset(channelID, args string) error {
	subcommand, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(subcommand) {
	case "new":
		return h.presetNew(channelID, rest)
	case "add":
		return h.presetAdd(channelID, rest)
	case "remove":
		return h.presetRemove(channelID, rest)
	default:
		return h.reply(channelID, `Invalid command, use "plan preset new" to create a new preset message, or "plan preset add" to add to an existing one. "plan preset remove {index}" can be used to remove items`)
	}
}

// getPresetMessage scans the channel's pins for the bot's preset message.
// A channel without one returns nil, not an error.
func (h *Handler) getPresetMessage(channelID string) (*model.PresetMessage, error) {
	pins, _, err := h.client.ListPins(channelID)
	if err != nil {
		return nil, fmt.Errorf("ListPins failed: %w", err)
	}
	for _, pin := range pins {
		msg := pin.Message
		if msg == nil || !h.isOwnMessage(msg) {
			continue
		}
		if strings.HasPrefix(msg.Text, model.PresetPrefix) {
			preset := model.ParsePresetMessage(msg.Text)
			preset.ChannelID = channelID
			preset.Timestamp = msg.Timestamp
			return preset, nil
		}
	}
	return nil, nil
}

func (h *Handler) presetNew(channelID, itemsText string) error {
	preset := model.NewPresetMessage(itemsText)
	if len(preset.Items) == 0 {
		return h.reply(channelID, "Please provide a comma-separated list of items to plan")
	}

	// 古いプリセットはピンを外してから消す
	old, err := h.getPresetMessage(channelID)
	if err != nil {
		return err
	}
	if old != nil {
		if err := h.client.RemovePin(channelID, slack.NewRefToMessage(old.ChannelID, old.Timestamp)); err != nil {
			return fmt.Errorf("RemovePin failed: %w", err)
		}
		if _, _, err := h.client.DeleteMessage(old.ChannelID, old.Timestamp); err != nil {
			return fmt.Errorf("DeleteMessage failed: %w", err)
		}
	}

	_, ts, err := h.client.PostMessage(channelID, slack.MsgOptionText(preset.MessageContent(), false))
	if err != nil {
		return fmt.Errorf("PostMessage failed: %w", err)
	}
	if err := h.client.AddPin(channelID, slack.NewRefToMessage(channelID, ts)); err != nil {
		return fmt.Errorf("AddPin failed: %w", err)
	}
	return nil
}

func (h *Handler) presetAdd(channelID, itemsText string) error {
	if len(model.ParseCommaList(itemsText)) == 0 {
		return h.reply(channelID, "Please provide a comma-separated list of items to add")
	}

	preset, err := h.getPresetMessage(channelID)
	if err != nil {
		return err
	}
	if preset == nil {
		if err := h.reply(channelID, msgNoPreset); err != nil {
			return err
		}
		return model.ErrNoPreset
	}

	preset.AddItems(itemsText)
	return h.updatePreset(preset)
}

func (h *Handler) presetRemove(channelID, arg string) error {
	index, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return h.reply(channelID, "Please provide the number of the item to remove")
	}

	preset, err := h.getPresetMessage(channelID)
	if err != nil {
		return err
	}
	if preset == nil {
		if err := h.reply(channelID, msgNoPreset); err != nil {
			return err
		}
		return model.ErrNoPreset
	}

	if err := preset.RemoveItem(index); err != nil {
		return h.reply(channelID, err.Error())
	}
	return h.updatePreset(preset)
}

func (h *Handler) updatePreset(preset *model.PresetMessage) error {
	if _, _, _, err := h.client.UpdateMessage(
		preset.ChannelID,
		preset.Timestamp,
		slack.MsgOptionText(preset.MessageContent(), false),
	); err != nil {
		return fmt.Errorf("UpdateMessage failed: %w", err)
	}
	return nil
}
