package handler

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pyama86/slanning-control/domain/model"
	"github.com/slack-go/slack"
)

// historyLimit is how far back the scanner looks for the anchor message.
const historyLimit = 250

const (
	msgNoActivePoll = `There is no active planning, use "plan new" to create one`
	msgStalePoll    = "This planning was made more than a week ago, please create a new planning"
)

// locateActivePoll walks the channel history newest first, collecting the
// bot's own messages until the newest anchor message. Collected messages
// carrying the Yes marker are the planning's items, returned oldest first.
func (h *Handler) locateActivePoll(channelID string) (*slack.Message, []slack.Message, error) {
	history, err := h.client.GetConversationHistory(&slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     historyLimit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("GetConversationHistory failed: %w", err)
	}

	var anchor *slack.Message
	var items []slack.Message
	for _, msg := range history.Messages {
		if !h.isOwnMessage(&msg) {
			continue
		}
		if strings.HasPrefix(msg.Text, model.AnchorPrefix) {
			anchor = &msg
			break
		}
		// Yesマーカーが付いていないものはプランのアイテムではない
		if hasReaction(&msg, model.YesMarker.String()) {
			items = append(items, msg)
		}
	}
	if anchor == nil {
		return nil, nil, model.ErrNoActivePoll
	}

	slices.Reverse(items)
	return anchor, items, nil
}

// fetchPollResult classifies every reactor of the planning. Day rosters
// come off the anchor, Yes/Maybe/No rosters off each item, all with bot
// accounts excluded.
func (h *Handler) fetchPollResult(channelID string, anchor *slack.Message, items []slack.Message) (*model.PollResult, error) {
	result := model.NewPollResult(channelID, anchor.Timestamp, tsTime(anchor.Timestamp))

	anchorReactions, err := h.client.GetReactions(
		slack.NewRefToMessage(channelID, anchor.Timestamp),
		slack.GetReactionsParameters{Full: true},
	)
	if err != nil {
		return nil, fmt.Errorf("GetReactions failed: %w", err)
	}
	for _, reaction := range anchorReactions {
		day, ok := model.DayOf(reaction.Name)
		if !ok {
			continue
		}
		names, err := h.resolveUserNames(reaction.Users)
		if err != nil {
			return nil, err
		}
		result.DayUserNames[day] = names
	}

	for _, item := range items {
		reactions, err := h.client.GetReactions(
			slack.NewRefToMessage(channelID, item.Timestamp),
			slack.GetReactionsParameters{Full: true},
		)
		if err != nil {
			return nil, fmt.Errorf("GetReactions failed: %w", err)
		}
		itemResult := model.ItemResult{Label: item.Text}
		for _, reaction := range reactions {
			names, err := h.resolveUserNames(reaction.Users)
			if err != nil {
				return nil, err
			}
			switch model.VoteMarker(reaction.Name) {
			case model.YesMarker:
				itemResult.YesUserNames = names
			case model.MaybeMarker:
				itemResult.MaybeUserNames = names
			case model.NoMarker:
				itemResult.NoUserNames = names
			}
		}
		result.Items = append(result.Items, itemResult)
	}

	return result, nil
}

func (h *Handler) resolveUserNames(userIDs []string) ([]string, error) {
	names := []string{}
	for _, userID := range userIDs {
		user, err := h.getUserInfo(userID)
		if err != nil {
			return nil, fmt.Errorf("GetUserInfo failed: %w", err)
		}
		if user.IsBot {
			continue
		}
		names = append(names, getUserPreferredName(user))
	}
	return names, nil
}

func (h *Handler) planNew(channelID, itemsText string) error {
	var items []string
	if strings.EqualFold(itemsText, "preset") {
		preset, err := h.getPresetMessage(channelID)
		if err != nil {
			return err
		}
		if preset == nil {
			if err := h.reply(channelID, `Preset does not exist, use "plan preset new" to create a new preset`); err != nil {
				return err
			}
			return model.ErrNoPreset
		}
		items = preset.Items
	} else {
		items = model.ParseCommaList(itemsText)
	}
	if len(items) == 0 {
		return h.reply(channelID, "Please provide a comma-separated list of items to plan")
	}

	announcement := fmt.Sprintf(
		"%s %d items! Please respond with the appropriate reactions. (Yes/Maybe/No, and the days on which you are available, starting today)",
		model.AnchorPrefix, len(items),
	)
	_, anchorTS, err := h.client.PostMessage(channelID, slack.MsgOptionText(announcement, false))
	if err != nil {
		return fmt.Errorf("PostMessage failed: %w", err)
	}

	itemTimestamps, err := h.postItems(channelID, items)
	if err != nil {
		return err
	}

	// リアクションはアンカー→アイテムの順
	for _, marker := range model.DayReactionsFrom(timeNow().Weekday()) {
		if err := h.client.AddReaction(marker.String(), slack.NewRefToMessage(channelID, anchorTS)); err != nil {
			return fmt.Errorf("AddReaction failed: %w", err)
		}
	}
	return h.addVoteReactions(channelID, itemTimestamps)
}

func (h *Handler) planAdd(channelID, itemsText string) error {
	items := model.ParseCommaList(itemsText)
	if len(items) == 0 {
		return h.reply(channelID, "Please provide a comma-separated list of items to add")
	}

	anchor, _, err := h.locateActivePoll(channelID)
	if err != nil {
		if errors.Is(err, model.ErrNoActivePoll) {
			if rerr := h.reply(channelID, msgNoActivePoll); rerr != nil {
				return rerr
			}
		}
		return err
	}
	if err := h.warnIfStale(channelID, anchor); err != nil {
		return err
	}

	itemTimestamps, err := h.postItems(channelID, items)
	if err != nil {
		return err
	}
	return h.addVoteReactions(channelID, itemTimestamps)
}

func (h *Handler) planResult(channelID string) error {
	result, err := h.activePollResult(channelID)
	if err != nil {
		return err
	}
	if result.Stale(timeNow()) {
		if err := h.reply(channelID, msgStalePoll); err != nil {
			return err
		}
	}
	for _, message := range result.BuildResultMessages() {
		if err := h.reply(channelID, message); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) planToday(channelID string, now time.Time) error {
	result, err := h.activePollResult(channelID)
	if err != nil {
		return err
	}
	if result.Stale(now) {
		if err := h.reply(channelID, msgStalePoll); err != nil {
			return err
		}
	}
	return h.reply(channelID, result.BuildTodayMessage(now))
}

func (h *Handler) activePollResult(channelID string) (*model.PollResult, error) {
	anchor, items, err := h.locateActivePoll(channelID)
	if err != nil {
		if errors.Is(err, model.ErrNoActivePoll) {
			if rerr := h.reply(channelID, msgNoActivePoll); rerr != nil {
				return nil, rerr
			}
		}
		return nil, err
	}
	return h.fetchPollResult(channelID, anchor, items)
}

func (h *Handler) postItems(channelID string, items []string) ([]string, error) {
	timestamps := make([]string, 0, len(items))
	for _, item := range items {
		_, ts, err := h.client.PostMessage(channelID, slack.MsgOptionText(item, false))
		if err != nil {
			return nil, fmt.Errorf("PostMessage failed: %w", err)
		}
		timestamps = append(timestamps, ts)
	}
	return timestamps, nil
}

func (h *Handler) addVoteReactions(channelID string, timestamps []string) error {
	for _, ts := range timestamps {
		for _, marker := range model.VoteMarkers() {
			if err := h.client.AddReaction(marker.String(), slack.NewRefToMessage(channelID, ts)); err != nil {
				return fmt.Errorf("AddReaction failed: %w", err)
			}
		}
	}
	return nil
}

func (h *Handler) warnIfStale(channelID string, anchor *slack.Message) error {
	if model.IsStale(tsTime(anchor.Timestamp), timeNow()) {
		return h.reply(channelID, msgStalePoll)
	}
	return nil
}

func (h *Handler) isOwnMessage(msg *slack.Message) bool {
	botID := h.getBotUserID()
	return botID != "" && (msg.User == botID || msg.BotID == botID)
}

func hasReaction(msg *slack.Message, name string) bool {
	for _, reaction := range msg.Reactions {
		if reaction.Name == name {
			return true
		}
	}
	return false
}

// tsTime converts a Slack message timestamp ("1712345678.000200") to a
// time.Time. A malformed timestamp yields the zero time.
func tsTime(ts string) time.Time {
	seconds, _, _ := strings.Cut(ts, ".")
	n, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
