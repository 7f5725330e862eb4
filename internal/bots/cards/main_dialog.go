package cards

import (
	"context"

	"github.com/SaratA8717/Botbuilder-samples/internal/dialog"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// Dialog ids.
const (
	MainDialogID    = "mainDialog"
	MainWaterfallID = "mainWaterfallDialog"
	CardPromptID    = "cardPrompt"
)

// Card choices, in the order they are offered.
const (
	ChoiceAdaptive  = "Adaptive Card"
	ChoiceAnimation = "Animation Card"
	ChoiceAudio     = "Audio Card"
	ChoiceHero      = "Hero Card"
	ChoiceOAuth     = "OAuth Card"
	ChoiceReceipt   = "Receipt Card"
	ChoiceSignin    = "Signin Card"
	ChoiceThumbnail = "Thumbnail Card"
	ChoiceVideo     = "Video Card"
	ChoiceAll       = "All Cards"
)

const (
	PromptText  = "What card would you like to see? You can click or type the card name"
	RetryText   = "That was not a valid choice, please select a card or number from 1 to 10."
	AnotherText = "Type anything to see another card."
)

// Choices lists the options of the card prompt.
func Choices() []string {
	return []string{
		ChoiceAdaptive, ChoiceAnimation, ChoiceAudio, ChoiceHero, ChoiceOAuth,
		ChoiceReceipt, ChoiceSignin, ChoiceThumbnail, ChoiceVideo, ChoiceAll,
	}
}

// NewMainDialog builds the dialog asking which card to show and showing it.
// The dialog ends after each card; the next message starts it again.
func NewMainDialog() (*dialog.Component, error) {
	main := dialog.NewComponent(MainDialogID)
	waterfall := dialog.NewWaterfall(MainWaterfallID, chooseCardStep, showCardStep)
	if err := main.AddDialog(waterfall); err != nil {
		return nil, err
	}
	if err := main.AddDialog(dialog.NewChoicePrompt(CardPromptID, nil)); err != nil {
		return nil, err
	}
	return main, nil
}

func chooseCardStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	return sc.Prompt(ctx, CardPromptID, dialog.PromptOptions{
		Prompt:      PromptText,
		RetryPrompt: RetryText,
		Choices:     Choices(),
	})
}

func showCardStep(ctx context.Context, sc *dialog.StepContext) (dialog.TurnResult, error) {
	choice, _ := sc.Result.(dialog.FoundChoice)

	attachments, err := cardsFor(choice.Value)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	tc := sc.TurnContext()
	if err := tc.SendActivities(ctx, activity.NewAttachmentMessage("", attachments...)); err != nil {
		return dialog.TurnResult{}, err
	}
	if err := tc.SendText(ctx, AnotherText); err != nil {
		return dialog.TurnResult{}, err
	}
	return sc.EndDialog(ctx, choice.Value)
}

// cardsFor returns the attachments shown for a choice. Anything unknown
// shows every card.
func cardsFor(choice string) ([]activity.Attachment, error) {
	switch choice {
	case ChoiceAdaptive:
		card, err := AdaptiveCard()
		if err != nil {
			return nil, err
		}
		return []activity.Attachment{card}, nil
	case ChoiceAnimation:
		return []activity.Attachment{AnimationCard()}, nil
	case ChoiceAudio:
		return []activity.Attachment{AudioCard()}, nil
	case ChoiceHero:
		return []activity.Attachment{HeroCardAttachment()}, nil
	case ChoiceOAuth:
		return []activity.Attachment{OAuthCardAttachment()}, nil
	case ChoiceReceipt:
		return []activity.Attachment{ReceiptCardAttachment()}, nil
	case ChoiceSignin:
		return []activity.Attachment{SigninCardAttachment()}, nil
	case ChoiceThumbnail:
		return []activity.Attachment{ThumbnailCardAttachment()}, nil
	case ChoiceVideo:
		return []activity.Attachment{VideoCard()}, nil
	default:
		adaptive, err := AdaptiveCard()
		if err != nil {
			return nil, err
		}
		return []activity.Attachment{
			adaptive,
			AnimationCard(),
			AudioCard(),
			HeroCardAttachment(),
			OAuthCardAttachment(),
			ReceiptCardAttachment(),
			SigninCardAttachment(),
			ThumbnailCardAttachment(),
			VideoCard(),
		}, nil
	}
}
