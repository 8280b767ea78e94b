package infra

import "github.com/slack-go/slack"

//go:generate go run go.uber.org/mock/mockgen -source=slack.go -destination=../../handler/mock_slack.go -package=handler

// SlackAPI is the platform capability set the bot consumes. Everything
// the bot knows about a planning is re-derived through these calls.
type SlackAPI interface {
	AuthTest() (*slack.AuthTestResponse, error)
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessage(channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	DeleteMessage(channelID, ts string) (string, string, error)
	AddReaction(name string, item slack.ItemRef) error
	GetReactions(item slack.ItemRef, params slack.GetReactionsParameters) ([]slack.ItemReaction, error)
	GetConversationHistory(params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetUserInfo(userID string) (*slack.User, error)
	AddPin(channelID string, item slack.ItemRef) error
	RemovePin(channelID string, item slack.ItemRef) error
	ListPins(channelID string) ([]slack.Item, *slack.Paging, error)
}
