package conversation

// Required field sets per intent. The gate fires a transaction only when
// every listed field is populated in the session.
var (
	bookRequired        = []string{"firstName", "lastName", "custId", "patientId", "date", "time"}
	cancelRequired      = []string{"firstName", "lastName", "patientId", "date", "time"}
	updateFetchRequired = []string{"patientId", "old_date", "old_time"}
	updateApplyRequired = []string{"firstName", "lastName", "patientId", "old_date", "old_time", "date", "time"}
)

func fieldsSatisfied(fields map[string]string, required []string) bool {
	for _, k := range required {
		if fields[k] == "" {
			return false
		}
	}
	return true
}

// UpdateFetchReady reports whether an update session knows enough to fetch
// the existing appointment. Fetching is idempotent, so this fires every turn
// until the new slot arrives.
func UpdateFetchReady(fields map[string]string) bool {
	return fields["intent"] == "update" && fieldsSatisfied(fields, updateFetchRequired)
}

// TransactionReady reports whether the session's intent has its full
// required field set and a mutation should fire.
func TransactionReady(fields map[string]string) bool {
	switch fields["intent"] {
	case "book":
		return fieldsSatisfied(fields, bookRequired)
	case "cancel":
		return fieldsSatisfied(fields, cancelRequired)
	case "update":
		return fieldsSatisfied(fields, updateApplyRequired)
	}
	return false
}
