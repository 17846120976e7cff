package conversation

import (
	"fmt"
	"regexp"
)

// infoQueries maps spoken field phrases to session field keys, in match
// priority order.
var infoQueries = []struct {
	Phrase string
	Field  string
}{
	{"name", "name"},
	{"first name", "firstName"},
	{"last name", "lastName"},
	{"customer id", "custId"},
	{"cust id", "custId"},
	{"patient id", "patientId"},
	{"phone", "phone"},
	{"email", "email"},
	{"gender", "gender"},
	{"practice id", "practiceId"},
	{"guarantor id", "guarId"},
	{"guar id", "guarId"},
	{"specialty", "specialty"},
	{"user id", "userId"},
	{"registration date", "registrationDate"},
	{"last visit", "lastVisit"},
	{"first visit", "firstVisit"},
}

var infoQueryREs = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(infoQueries))
	for i, q := range infoQueries {
		res[i] = regexp.MustCompile(`(?i)(what's|what is|tell me|give me)\s+(my\s+)?` + q.Phrase)
	}
	return res
}()

// dateValuedFields are reported with "was on" phrasing.
var dateValuedFields = map[string]bool{
	"lastVisit":        true,
	"firstVisit":       true,
	"registrationDate": true,
}

// HandleInfoQuery answers a direct personal-information question from the
// session fields, short-circuiting the extraction round trip. ok is false
// when the input is not an info query.
func HandleInfoQuery(userInput string, fields map[string]string) (string, bool) {
	for i, q := range infoQueries {
		if !infoQueryREs[i].MatchString(userInput) {
			continue
		}
		value := fields[q.Field]
		if value == "" {
			return fmt.Sprintf("I don't have that information for your %s.", q.Phrase), true
		}
		if q.Field == "name" {
			return fmt.Sprintf("Your name is %s.", value), true
		}
		if dateValuedFields[q.Field] {
			return fmt.Sprintf("Your %s was on %s.", q.Phrase, value), true
		}
		return fmt.Sprintf("Your %s is %s.", q.Phrase, value), true
	}
	return "", false
}
