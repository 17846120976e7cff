package conversation

import (
	"fmt"

	"github.com/zealsham/appointment-ai-agent/internal/appointments"
	"github.com/zealsham/appointment-ai-agent/internal/schedule"
)

// ComposeReply maps a transaction outcome onto the user-facing reply. When
// the outcome is nil or carries no fixed phrasing, the extractor's own
// response text stands.
func ComposeReply(llmResponse string, out *appointments.Outcome, fields map[string]string) string {
	if out == nil {
		return llmResponse
	}

	name := fields["name"]
	if name == "" {
		name = "User"
	}
	label := schedule.Label(out.Time)

	switch out.Code {
	case appointments.CodeConfirmed:
		return fmt.Sprintf("Great, %s! Your appointment is confirmed for %s at %s.", name, out.Date, label)
	case appointments.CodeSlotTaken:
		return fmt.Sprintf("Sorry, the slot on %s at %s is already taken. Please choose another time from: %s.", out.Date, label, schedule.LabelList())
	case appointments.CodeCanceled:
		return fmt.Sprintf("Your appointment on %s at %s has been canceled.", out.Date, label)
	case appointments.CodeUpdated:
		return fmt.Sprintf("Your appointment has been updated to %s at %s.", out.Date, label)
	case appointments.CodeFetched:
		reason := out.Reason
		if reason == "" {
			reason = "None"
		}
		return fmt.Sprintf("I found your appointment on %s at %s. Reason: %s. Please provide the new date for rescheduling (e.g., 2025-05-20).", out.Date, label, reason)
	case appointments.CodeNotFound:
		return fmt.Sprintf("No appointment found for %s on %s at %s. Would you like to book a new one?", name, out.Date, label)
	case appointments.CodeDBError:
		return "Sorry, there was an issue with the database. Please try again later."
	}
	return llmResponse
}
