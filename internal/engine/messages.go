package engine

import (
	"fmt"
	"strings"

	"wedding-guestbot/internal/models"
)

// All user-facing text lives here so the wording can be edited in one place.

const (
	msgWelcome = "👋 Welcome to the wedding guest manager!\n\n" +
		"To add a guest, share a contact card (tap 📎 → Contact)."

	msgHelp = "📖 How to use this bot:\n\n" +
		"1. Share a contact card (tap 📎 → Contact)\n" +
		"2. If the contact has multiple numbers, pick one\n" +
		"3. Type the guest's name\n" +
		"4. Answer the group questions\n\n" +
		"Commands: /start begins over, /cancel aborts the current guest.\n" +
		"The guest is added to the wedding spreadsheet."

	msgNeedContact = "📱 Please share a contact card to add a guest.\n\n" +
		"Just tap the attachment icon and select \"Contact\"."

	msgNoPhoneInContact = "❌ This contact doesn't have a phone number.\n\n" +
		"Please share a contact that includes one."

	msgAskName = "📝 Please type the guest's full name:"

	msgNameTooShort = "❌ That name is too short. Please type the guest's full name:"

	msgCancelled = "❌ Cancelled. Share a contact card to add a new guest."

	msgGenericError = "❌ Something went wrong. Please try again.\n\n" +
		"Share a contact card to start over."

	msgSaveFailed = "❌ Failed to save to the spreadsheet. Please answer again to retry."

	msgLookupFailed = "❌ Could not check the guest list right now. Please try again in a moment."

	msgDeleteFailed = "❌ Could not remove the existing entry. Please start over by sharing the contact again."

	msgPickFromList = "👆 Please pick one of the listed options."
)

func msgPhoneSelected(displayPhone string) string {
	return fmt.Sprintf("✅ Got it! Using: %s\n\nNow please type the guest's full name:", displayPhone)
}

func msgNameReceived(name string) string {
	return fmt.Sprintf("✅ Name: %s", name)
}

func msgReplacedContinue(displayPhone string) string {
	return fmt.Sprintf("🗑️ The previous entry was removed.\n\n✅ Number: %s\n\nNow please type the guest's full name:", displayPhone)
}

func msgDuplicateFound(rec *models.GuestRecord, displayPhone string) string {
	var b strings.Builder
	b.WriteString("⚠️ This number is already on the list!\n\n")
	fmt.Fprintf(&b, "👤 Name: %s\n", rec.Name)
	fmt.Fprintf(&b, "📞 Phone: %s\n", displayPhone)
	fmt.Fprintf(&b, "👥 Group: %s\n", rec.Group)
	if rec.PartySize > 0 {
		fmt.Fprintf(&b, "🎟️ Party size: %d\n", rec.PartySize)
	}
	if !rec.AddedAt.IsZero() {
		fmt.Fprintf(&b, "📅 Added: %s\n", rec.AddedAt.Format("02.01.2006"))
	}
	b.WriteString("\nDelete it and add a new entry?")
	return b.String()
}

func msgGuestAdded(rec models.GuestRecord, displayPhone string) string {
	var b strings.Builder
	b.WriteString("🎉 Guest added successfully!\n\n")
	fmt.Fprintf(&b, "👤 Name: %s\n", rec.Name)
	fmt.Fprintf(&b, "📞 Phone: %s\n", displayPhone)
	fmt.Fprintf(&b, "👥 Group: %s\n", rec.Group)
	if rec.PartySize > 0 {
		fmt.Fprintf(&b, "🎟️ Party size: %d\n", rec.PartySize)
	}
	if rec.Likely != nil {
		likely := "yes"
		if !*rec.Likely {
			likely = "no"
		}
		fmt.Fprintf(&b, "🤞 Likely to arrive: %s\n", likely)
	}
	b.WriteString("\nSend another contact to add more guests.")
	return b.String()
}

// Prompt texts for choice lists.

const (
	promptPickPhone = "This contact has multiple phone numbers. Which one should be used?"

	promptPickPerson = "👫 Whose guest is this?"

	promptPickType = "👥 Choose a category:"

	promptPickFamily = "👪 Which family?"

	promptPickNumGuests = "🎟️ How many people are coming with this invitation?"

	promptPickLikely = "🤞 Is this guest likely to arrive?"

	promptConfirmReplace = "Delete the existing entry and add a new one?"
)

var replaceOptions = []Option{
	{ID: "replace:yes", Label: "Yes, replace"},
	{ID: "replace:no", Label: "No, cancel"},
}

var likelyOptions = []Option{
	{ID: "likely:yes", Label: "Yes"},
	{ID: "likely:no", Label: "No"},
}

func partySizeOptions(max int) []Option {
	opts := make([]Option, 0, max)
	for i := 1; i <= max; i++ {
		label := fmt.Sprintf("%d", i)
		if i == max {
			label += "+"
		}
		opts = append(opts, Option{ID: fmt.Sprintf("guests:%d", i), Label: label})
	}
	return opts
}

func phoneOptions(displayPhones []string) []Option {
	opts := make([]Option, 0, len(displayPhones))
	for i, p := range displayPhones {
		opts = append(opts, Option{ID: fmt.Sprintf("phone:%d", i), Label: p})
	}
	return opts
}
