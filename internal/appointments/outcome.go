package appointments

// Code classifies the result of a transaction attempt.
type Code string

const (
	CodeConfirmed       Code = "CONFIRMED"
	CodeSlotTaken       Code = "SLOT_TAKEN"
	CodeCanceled        Code = "CANCELED"
	CodeUpdated         Code = "UPDATED"
	CodeFetched         Code = "FETCHED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeMissingInfo     Code = "MISSING_INFO"
	CodeInvalidDateTime Code = "INVALID_DATETIME"
	CodeInvalidIntent   Code = "INVALID_INTENT"
	CodeDBError         Code = "DB_ERROR"
)

// Outcome is the tagged result of a transaction attempt. Date/Time carry the
// slot the outcome refers to; Reason is populated for fetches; Detail carries
// diagnostic text for DB errors.
type Outcome struct {
	Code   Code
	Date   string
	Time   string
	Reason string
	Detail string
}

// Terminal reports whether the outcome completed a transaction, meaning the
// session's transient fields should be reset.
func (o Outcome) Terminal() bool {
	switch o.Code {
	case CodeConfirmed, CodeCanceled, CodeUpdated:
		return true
	}
	return false
}

// String renders the log/debug form, e.g. "CONFIRMED:2025-05-20:09:00:00".
func (o Outcome) String() string {
	switch o.Code {
	case CodeConfirmed, CodeSlotTaken, CodeCanceled, CodeUpdated, CodeNotFound:
		return string(o.Code) + ":" + o.Date + ":" + o.Time
	case CodeFetched:
		return string(o.Code) + ":" + o.Date + ":" + o.Time + ":" + o.Reason
	case CodeDBError:
		if o.Detail != "" {
			return string(o.Code) + ":" + o.Detail
		}
	}
	return string(o.Code)
}
