package activity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type tags the kind of an Activity.
type Type string

const (
	TypeMessage            Type = "message"
	TypeConversationUpdate Type = "conversationUpdate"
	TypeMessageReaction    Type = "messageReaction"
	TypeEvent              Type = "event"
	TypeTyping             Type = "typing"
	TypeEndOfConversation  Type = "endOfConversation"
	TypeInstallationUpdate Type = "installationUpdate"
)

// Known reports whether t is one of the activity types the runtime dispatches.
func (t Type) Known() bool {
	switch t {
	case TypeMessage, TypeConversationUpdate, TypeMessageReaction, TypeEvent,
		TypeTyping, TypeEndOfConversation, TypeInstallationUpdate:
		return true
	default:
		return false
	}
}

// DeliveryModeExpectReplies asks the ingress to return replies in the HTTP response.
const DeliveryModeExpectReplies = "expectReplies"

var (
	ErrMissingType         = errors.New("activity type is required")
	ErrMissingConversation = errors.New("activity conversation id is required")
	ErrMissingChannel      = errors.New("activity channel id is required")
)

// ChannelAccount identifies a user or bot on a channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// ConversationAccount identifies the conversation an activity belongs to.
type ConversationAccount struct {
	ID               string `json:"id"`
	Name             string `json:"name,omitempty"`
	IsGroup          bool   `json:"isGroup,omitempty"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
}

// Card action types.
const (
	ActionIMBack      = "imBack"
	ActionPostBack    = "postBack"
	ActionOpenURL     = "openUrl"
	ActionPlayAudio   = "playAudio"
	ActionPlayVideo   = "playVideo"
	ActionShowImage   = "showImage"
	ActionSignin      = "signin"
	ActionMessageBack = "messageBack"
)

// Attachment content types of the card kinds the runtime builds.
const (
	ContentTypeAdaptiveCard  = "application/vnd.microsoft.card.adaptive"
	ContentTypeAnimationCard = "application/vnd.microsoft.card.animation"
	ContentTypeAudioCard     = "application/vnd.microsoft.card.audio"
	ContentTypeHeroCard      = "application/vnd.microsoft.card.hero"
	ContentTypeReceiptCard   = "application/vnd.microsoft.card.receipt"
	ContentTypeSigninCard    = "application/vnd.microsoft.card.signin"
	ContentTypeThumbnailCard = "application/vnd.microsoft.card.thumbnail"
	ContentTypeVideoCard     = "application/vnd.microsoft.card.video"
	ContentTypeOAuthCard     = "application/vnd.microsoft.card.oauth"
)

// Attachment carries opaque rich content such as a card.
type Attachment struct {
	ContentType string `json:"contentType"`
	ContentURL  string `json:"contentUrl,omitempty"`
	Content     any    `json:"content,omitempty"`
	Name        string `json:"name,omitempty"`
}

// CardAction is a clickable action offered to the user.
type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value any    `json:"value,omitempty"`
}

// SuggestedActions are quick replies rendered alongside a message.
type SuggestedActions struct {
	To      []string     `json:"to,omitempty"`
	Actions []CardAction `json:"actions"`
}

// MessageReaction is a single reaction on a message.
type MessageReaction struct {
	Type string `json:"type"`
}

// Activity is the unit of inbound and outbound conversational traffic.
// Inbound activities must not be mutated once handed to the runtime.
type Activity struct {
	Type             Type                `json:"type"`
	ID               string              `json:"id,omitempty"`
	Timestamp        time.Time           `json:"timestamp,omitempty"`
	ServiceURL       string              `json:"serviceUrl,omitempty"`
	ChannelID        string              `json:"channelId"`
	From             ChannelAccount      `json:"from"`
	Recipient        ChannelAccount      `json:"recipient"`
	Conversation     ConversationAccount `json:"conversation"`
	Text             string              `json:"text,omitempty"`
	Locale           string              `json:"locale,omitempty"`
	InputHint        string              `json:"inputHint,omitempty"`
	Attachments      []Attachment        `json:"attachments,omitempty"`
	SuggestedActions *SuggestedActions   `json:"suggestedActions,omitempty"`
	MembersAdded     []ChannelAccount    `json:"membersAdded,omitempty"`
	MembersRemoved   []ChannelAccount    `json:"membersRemoved,omitempty"`
	ReactionsAdded   []MessageReaction   `json:"reactionsAdded,omitempty"`
	ReactionsRemoved []MessageReaction   `json:"reactionsRemoved,omitempty"`
	Name             string              `json:"name,omitempty"`
	Value            any                 `json:"value,omitempty"`
	ReplyToID        string              `json:"replyToId,omitempty"`
	DeliveryMode     string              `json:"deliveryMode,omitempty"`
}

// Validate checks the fields the runtime relies on for routing and state keys.
func (a *Activity) Validate() error {
	if a.Type == "" {
		return ErrMissingType
	}
	if strings.TrimSpace(a.ChannelID) == "" {
		return ErrMissingChannel
	}
	if strings.TrimSpace(a.Conversation.ID) == "" {
		return ErrMissingConversation
	}
	return nil
}

// Reply builds a message addressed back to the sender of a.
func (a *Activity) Reply(text string) *Activity {
	return &Activity{
		Type:         TypeMessage,
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		ServiceURL:   a.ServiceURL,
		ChannelID:    a.ChannelID,
		From:         a.Recipient,
		Recipient:    a.From,
		Conversation: a.Conversation,
		Text:         text,
		Locale:       a.Locale,
		ReplyToID:    a.ID,
	}
}

// NewMessage returns an unaddressed message; the turn context fills in
// addressing when it is sent.
func NewMessage(text string) *Activity {
	return &Activity{Type: TypeMessage, Text: text}
}

// NewAttachmentMessage returns an unaddressed message carrying attachments.
func NewAttachmentMessage(text string, attachments ...Attachment) *Activity {
	return &Activity{Type: TypeMessage, Text: text, Attachments: attachments}
}

// ApplyConversationReference addresses out as a reply to in. Fields already
// set on out are kept.
func ApplyConversationReference(out, in *Activity) {
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	if out.ChannelID == "" {
		out.ChannelID = in.ChannelID
	}
	if out.ServiceURL == "" {
		out.ServiceURL = in.ServiceURL
	}
	if out.Conversation.ID == "" {
		out.Conversation = in.Conversation
	}
	if out.From.ID == "" {
		out.From = in.Recipient
	}
	if out.Recipient.ID == "" {
		out.Recipient = in.From
	}
	if out.Locale == "" {
		out.Locale = in.Locale
	}
	if out.ReplyToID == "" && in.Type != TypeConversationUpdate {
		out.ReplyToID = in.ID
	}
}
