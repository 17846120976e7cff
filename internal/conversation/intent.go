package conversation

import "regexp"

// Valid transactional/query intents. Anything else extracted is noise and
// never overwrites session state.
var validIntents = map[string]bool{
	"book":   true,
	"update": true,
	"cancel": true,
	"query":  true,
}

// An explicit reschedule request is the only thing allowed to move a session
// off a cancel intent.
var rescheduleRE = regexp.MustCompile(`(?i)\b(re-?schedul\w*|update\w*)\b`)

// NextIntent applies intent stickiness: the extracted intent wins only when
// it is valid, and a cancel intent holds unless the user's own words ask for
// a reschedule.
func NextIntent(previous, extracted, userInput string) string {
	if !validIntents[extracted] {
		return previous
	}
	if previous == "cancel" && extracted != "cancel" {
		if extracted == "update" && rescheduleRE.MatchString(userInput) {
			return "update"
		}
		return previous
	}
	return extracted
}
