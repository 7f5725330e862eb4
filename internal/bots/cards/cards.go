package cards

import (
	"github.com/SaratA8717/Botbuilder-samples/internal/bots/adaptivecards"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// CardImage is an image shown on a rich card.
type CardImage struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// MediaURL is one media source of a media card.
type MediaURL struct {
	URL     string `json:"url"`
	Profile string `json:"profile,omitempty"`
}

// HeroCard has a single large image; ThumbnailCard shares its shape.
type HeroCard struct {
	Title    string                `json:"title,omitempty"`
	Subtitle string                `json:"subtitle,omitempty"`
	Text     string                `json:"text,omitempty"`
	Images   []CardImage           `json:"images,omitempty"`
	Buttons  []activity.CardAction `json:"buttons,omitempty"`
}

// MediaCard is the content of animation, audio and video cards.
type MediaCard struct {
	Title     string                `json:"title,omitempty"`
	Subtitle  string                `json:"subtitle,omitempty"`
	Text      string                `json:"text,omitempty"`
	Image     *CardImage            `json:"image,omitempty"`
	Media     []MediaURL            `json:"media"`
	Buttons   []activity.CardAction `json:"buttons,omitempty"`
	Shareable bool                  `json:"shareable"`
	Autoloop  bool                  `json:"autoloop"`
	Autostart bool                  `json:"autostart"`
}

type Fact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ReceiptItem struct {
	Title    string     `json:"title"`
	Price    string     `json:"price"`
	Quantity string     `json:"quantity"`
	Image    *CardImage `json:"image,omitempty"`
}

type ReceiptCard struct {
	Title   string                `json:"title"`
	Facts   []Fact                `json:"facts,omitempty"`
	Items   []ReceiptItem         `json:"items,omitempty"`
	Tax     string                `json:"tax,omitempty"`
	Total   string                `json:"total"`
	Buttons []activity.CardAction `json:"buttons,omitempty"`
}

type SigninCard struct {
	Text    string                `json:"text"`
	Buttons []activity.CardAction `json:"buttons"`
}

type OAuthCard struct {
	Text           string                `json:"text"`
	ConnectionName string                `json:"connectionName"`
	Buttons        []activity.CardAction `json:"buttons"`
}

func attachment(contentType string, content any) activity.Attachment {
	return activity.Attachment{ContentType: contentType, Content: content}
}

func openURL(title, url string) activity.CardAction {
	return activity.CardAction{Type: activity.ActionOpenURL, Title: title, Value: url}
}

const botFrameworkImage = "https://sec.ch9.ms/ch9/7ff5/e07cfef0-aa3b-40bb-9baa-7c9ef8ff7ff5/buildreactionbotframework_960.jpg"

// AdaptiveCard returns the flight itinerary adaptive card.
func AdaptiveCard() (activity.Attachment, error) {
	return adaptivecards.Card("FlightItineraryCard")
}

func AnimationCard() activity.Attachment {
	return attachment(activity.ContentTypeAnimationCard, MediaCard{
		Title: "Microsoft Bot Framework",
		Media: []MediaURL{{URL: "https://i.giphy.com/Ki55RUbOV5njy.gif"}},
	})
}

func AudioCard() activity.Attachment {
	return attachment(activity.ContentTypeAudioCard, MediaCard{
		Title:    "I am your father",
		Subtitle: "Star Wars: Episode V - The Empire Strikes Back",
		Text:     "The Empire Strikes Back (also known as Star Wars: Episode V - The Empire Strikes Back) is a 1980 American epic space opera film directed by Irvin Kershner.",
		Image:    &CardImage{URL: "https://upload.wikimedia.org/wikipedia/en/3/3c/SW_-_Empire_Strikes_Back.jpg"},
		Media:    []MediaURL{{URL: "https://wavlist.com/wav/father.wav"}},
		Buttons:  []activity.CardAction{openURL("Read More", "https://en.wikipedia.org/wiki/The_Empire_Strikes_Back")},
	})
}

func HeroCardAttachment() activity.Attachment {
	return attachment(activity.ContentTypeHeroCard, HeroCard{
		Title:   "BotFramework Hero Card",
		Images:  []CardImage{{URL: botFrameworkImage}},
		Buttons: []activity.CardAction{openURL("Get started", "https://docs.microsoft.com/en-us/azure/bot-service/")},
	})
}

func OAuthCardAttachment() activity.Attachment {
	return attachment(activity.ContentTypeOAuthCard, OAuthCard{
		Text:           "BotFramework OAuth Card",
		ConnectionName: "OAuth connection",
		Buttons:        []activity.CardAction{{Type: activity.ActionSignin, Title: "Sign In"}},
	})
}

func ReceiptCardAttachment() activity.Attachment {
	return attachment(activity.ContentTypeReceiptCard, ReceiptCard{
		Title: "John Doe",
		Facts: []Fact{
			{Key: "Order Number", Value: "1234"},
			{Key: "Payment Method", Value: "VISA 5555-****"},
		},
		Items: []ReceiptItem{
			{Title: "Data Transfer", Price: "$38.45", Quantity: "368", Image: &CardImage{URL: "https://github.com/amido/azure-vector-icons/raw/master/renders/traffic-manager.png"}},
			{Title: "App Service", Price: "$45.00", Quantity: "720", Image: &CardImage{URL: "https://github.com/amido/azure-vector-icons/raw/master/renders/cloud-service.png"}},
		},
		Tax:     "$7.50",
		Total:   "$90.95",
		Buttons: []activity.CardAction{openURL("More information", "https://azure.microsoft.com/en-us/pricing/details/bot-service/")},
	})
}

func SigninCardAttachment() activity.Attachment {
	return attachment(activity.ContentTypeSigninCard, SigninCard{
		Text:    "BotFramework Sign-in Card",
		Buttons: []activity.CardAction{{Type: activity.ActionSignin, Title: "Sign-in", Value: "https://login.microsoftonline.com/"}},
	})
}

func ThumbnailCardAttachment() activity.Attachment {
	return attachment(activity.ContentTypeThumbnailCard, HeroCard{
		Title:    "BotFramework Thumbnail Card",
		Subtitle: "Your bots - wherever your users are talking",
		Text:     "Build and connect intelligent bots to interact with your users naturally wherever they are, from text/sms to Skype, Slack, Office 365 mail and other popular services.",
		Images:   []CardImage{{URL: botFrameworkImage}},
		Buttons:  []activity.CardAction{openURL("Get started", "https://docs.microsoft.com/en-us/azure/bot-service/")},
	})
}

func VideoCard() activity.Attachment {
	return attachment(activity.ContentTypeVideoCard, MediaCard{
		Title:    "2018 Imagine Cup World Championship Intro",
		Subtitle: "by Microsoft",
		Text:     "Microsoft's Imagine Cup has empowered student developers around the world to create and innovate on the world stage for the past 16 years.",
		Media:    []MediaURL{{URL: "https://sec.ch9.ms/ch9/783d/d57287a5-185f-4df9-aa08-fcab699a783d/IC18WorldChampionshipIntro2.mp4"}},
		Buttons:  []activity.CardAction{openURL("Learn More", "https://channel9.msdn.com/Events/Imagine-Cup/World-Finals-2018/Imagine-Cup-2018-World-Championship-Intro")},
	})
}
