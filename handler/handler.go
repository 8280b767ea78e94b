package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pyama86/slanning-control/domain/infra"
	"github.com/pyama86/slanning-control/domain/model"
	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

const (
	cmdPing = "ping"
	cmdPlan = "plan"
)

type Handler struct {
	client        infra.SlackAPI
	userInfoCache *ttlcache.Cache[string, *slack.User]
	cron          *cron.Cron
	botID         string
	prefix        string
}

func NewHandler() (*Handler, error) {
	api := slack.New(
		os.Getenv("SLACK_BOT_TOKEN"),
		slack.OptionAppLevelToken(os.Getenv("SLACK_APP_TOKEN")),
	)

	prefix := os.Getenv("COMMAND_PREFIX")
	if prefix == "" {
		prefix = "!"
	}

	h := &Handler{
		client:        api,
		userInfoCache: ttlcache.New(ttlcache.WithTTL[string, *slack.User](24 * time.Hour)),
		prefix:        prefix,
	}
	go h.userInfoCache.Start()
	return h, nil
}

func (h *Handler) Handle() error {
	webApi := slack.New(
		os.Getenv("SLACK_BOT_TOKEN"),
		slack.OptionAppLevelToken(os.Getenv("SLACK_APP_TOKEN")),
	)
	socketMode := socketmode.New(
		webApi,
	)
	authTest, authTestErr := webApi.AuthTest()
	if authTestErr != nil {
		return fmt.Errorf("SLACK_BOT_TOKEN is invalid: %w", authTestErr)
	}
	h.botID = authTest.UserID

	go func() {
		for envelope := range socketMode.Events {
			switch envelope.Type {
			case socketmode.EventTypeEventsAPI:
				socketMode.Ack(*envelope.Request)
				eventPayload, ok := envelope.Data.(slackevents.EventsAPIEvent)
				if !ok {
					slog.Error("Failed to cast to EventsAPIEvent")
					continue
				}
				h.handleCallBack(&eventPayload)
			default:
				socketMode.Debugf("Skipped: %v", envelope.Type)
			}
		}
	}()

	return socketMode.Run()
}

func (h *Handler) handleCallBack(event *slackevents.EventsAPIEvent) {
	switch event.Type {
	case slackevents.CallbackEvent:
		innerEvent := event.InnerEvent
		switch ev := innerEvent.Data.(type) {
		case *slackevents.MessageEvent:
			h.handleMessage(ev)
		}
	default:
		slog.Warn("Unsupported EventsAPIEvent type", slog.Any("type", event.Type))
	}
}

// handleMessage routes prefixed commands. The invoking message is deleted
// only when the command succeeds.
func (h *Handler) handleMessage(ev *slackevents.MessageEvent) {
	// 自分やボットの発言には反応しない
	if ev.SubType != "" || ev.BotID != "" || ev.User == h.getBotUserID() {
		return
	}
	text := strings.TrimSpace(ev.Text)
	if !strings.HasPrefix(text, h.prefix) {
		return
	}
	command := strings.TrimPrefix(text, h.prefix)

	var err error
	switch {
	case command == cmdPing:
		err = h.reply(ev.Channel, "Pong!")
	case command == cmdPlan || strings.HasPrefix(command, cmdPlan+" "):
		args := strings.TrimSpace(strings.TrimPrefix(command, cmdPlan))
		err = h.handlePlanCommand(ev.Channel, args)
	default:
		return
	}

	if err != nil {
		if errors.Is(err, model.ErrNoActivePoll) || errors.Is(err, model.ErrNoPreset) {
			slog.Warn("command aborted", slog.String("command", command), slog.Any("err", err))
		} else {
			slog.Error("command failed", slog.String("command", command), slog.Any("err", err))
		}
		return
	}

	if _, _, err := h.client.DeleteMessage(ev.Channel, ev.TimeStamp); err != nil {
		slog.Error("DeleteMessage failed", slog.Any("err", err))
	}
}

func (h *Handler) handlePlanCommand(channelID, args string) error {
	subcommand, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	switch subcommand {
	case "new":
		return h.planNew(channelID, rest)
	case "add":
		return h.planAdd(channelID, rest)
	case "result":
		return h.planResult(channelID)
	case "today":
		return h.planToday(channelID, timeNow())
	case "preset":
		return h.planPreset(channelID, rest)
	default:
		return h.reply(channelID, `Unknown plan command, use "plan new", "plan add", "plan result", "plan today" or "plan preset"`)
	}
}

func (h *Handler) reply(channelID, text string) error {
	if _, _, err := h.client.PostMessage(channelID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("PostMessage failed: %w", err)
	}
	return nil
}

// StartDigestMonitor posts the today recommendation to
// DAILY_RESULT_CHANNEL on a cron schedule (default: every morning at 9).
func (h *Handler) StartDigestMonitor() {
	channelID := os.Getenv("DAILY_RESULT_CHANNEL")
	if channelID == "" {
		return
	}
	spec := os.Getenv("DAILY_RESULT_CRON")
	if spec == "" {
		spec = "0 9 * * *"
	}

	h.cron = cron.New()
	if _, err := h.cron.AddFunc(spec, func() {
		if err := h.planToday(channelID, timeNow()); err != nil {
			slog.Error("daily digest failed", slog.Any("err", err))
		}
	}); err != nil {
		slog.Error("Invalid DAILY_RESULT_CRON", slog.String("spec", spec), slog.Any("err", err))
		return
	}
	h.cron.Start()
	slog.Info("Digest monitor started", slog.String("channel", channelID), slog.String("spec", spec))
}

func timeNow() time.Time {
	if tz := os.Getenv("BOT_TIMEZONE"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return time.Now().In(loc)
		}
	}
	return time.Now()
}

func getUserPreferredName(user *slack.User) string {
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName
	}
	if user.RealName != "" {
		return user.RealName
	}
	return user.Name
}

func (h *Handler) getUserInfo(userID string) (*slack.User, error) {
	cacheKey := "user_" + userID
	if user := h.userInfoCache.Get(cacheKey); user != nil {
		return user.Value(), nil
	}
	user, err := h.client.GetUserInfo(userID)
	if err != nil {
		return nil, err
	}
	h.userInfoCache.Set(cacheKey, user, ttlcache.DefaultTTL)
	return user, nil
}

func (h *Handler) getBotUserID() string {
	if h.botID == "" {
		authResp, err := h.client.AuthTest()
		if err != nil {
			slog.Error("Failed to get bot user ID", slog.Any("err", err))
			return ""
		}
		h.botID = authResp.UserID
	}
	return h.botID
}
