package handler

import (
	"net/http"
	"testing"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/slacktest"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func TestHandler_handleMessage_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)

	handler, err := NewHandler()
	assert.NoError(t, err)
	handler.client = mockClient
	handler.botID = "bot_id"

	gomock.InOrder(
		mockClient.EXPECT().PostMessage("channel_id", gomock.Any()).Return("channel_id", "100.0", nil),
		// 成功したので呼び出しメッセージを消す
		mockClient.EXPECT().DeleteMessage("channel_id", "1.0").Return("channel_id", "1.0", nil),
	)

	handler.handleMessage(&slackevents.MessageEvent{
		User:      "user_id",
		Channel:   "channel_id",
		Text:      "!ping",
		TimeStamp: "1.0",
	})
	if !ctrl.Satisfied() {
		t.Errorf("Not all expectations were met")
	}
}

func TestHandler_handleMessage_IgnoresUnprefixed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)

	handler, err := NewHandler()
	assert.NoError(t, err)
	handler.client = mockClient
	handler.botID = "bot_id"

	handler.handleMessage(&slackevents.MessageEvent{
		User:      "user_id",
		Channel:   "channel_id",
		Text:      "plan result without prefix",
		TimeStamp: "1.0",
	})
}

func TestHandler_handleMessage_IgnoresBots(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)

	handler, err := NewHandler()
	assert.NoError(t, err)
	handler.client = mockClient
	handler.botID = "bot_id"

	handler.handleMessage(&slackevents.MessageEvent{
		User:      "bot_id",
		Channel:   "channel_id",
		Text:      "!ping",
		TimeStamp: "1.0",
	})
	handler.handleMessage(&slackevents.MessageEvent{
		User:      "other_bot",
		BotID:     "B999",
		Channel:   "channel_id",
		Text:      "!ping",
		TimeStamp: "1.0",
	})
}

func TestHandler_handleMessage_NoDeleteOnAbort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)

	handler, err := NewHandler()
	assert.NoError(t, err)
	handler.client = mockClient
	handler.botID = "bot_id"

	// プランが無いので案内の返信のみ、呼び出しメッセージは残す
	mockClient.EXPECT().GetConversationHistory(gomock.Any()).Return(&slack.GetConversationHistoryResponse{}, nil).Times(1)
	mockClient.EXPECT().PostMessage("channel_id", gomock.Any()).Return("channel_id", "100.0", nil).Times(1)

	handler.handleMessage(&slackevents.MessageEvent{
		User:      "user_id",
		Channel:   "channel_id",
		Text:      "!plan result",
		TimeStamp: "1.0",
	})
	if !ctrl.Satisfied() {
		t.Errorf("Not all expectations were met")
	}
}

func TestHandler_handleMessage_Ping_SlackTest(t *testing.T) {
	var postedTexts []string
	var deleted bool

	server := slacktest.NewTestServer(func(c slacktest.Customize) {
		c.Handle("/auth.test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok": true, "user_id": "bot_id", "team_id": "T1234"}`))
		}))

		c.Handle("/chat.postMessage", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse form: %v", err)
			}
			postedTexts = append(postedTexts, r.FormValue("text"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok": true, "channel": "test-channel", "ts": "1234567890.123456"}`))
		}))

		c.Handle("/chat.delete", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deleted = true
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok": true, "channel": "test-channel", "ts": "1.0"}`))
		}))
	})

	go server.Start()
	defer server.Stop()

	api := slack.New(
		"dummy-token",
		slack.OptionAPIURL(server.GetAPIURL()),
	)

	h, err := NewHandler()
	assert.NoError(t, err)
	h.client = api

	_ = h.getBotUserID()

	h.handleMessage(&slackevents.MessageEvent{
		User:      "user_id",
		Channel:   "test-channel",
		Text:      "!ping",
		TimeStamp: "1.0",
	})

	assert.Equal(t, []string{"Pong!"}, postedTexts)
	assert.True(t, deleted, "成功したコマンドは呼び出しメッセージを消すはず")
}
