package conversation

import (
	"github.com/zealsham/appointment-ai-agent/internal/schedule"
	"github.com/zealsham/appointment-ai-agent/internal/session"
)

// Reconciler folds one extraction result into the session field set.
type Reconciler struct {
	Fallback schedule.FallbackParser
}

// Merge applies the turn's extraction to the session: intent stickiness,
// date normalization, last-write-wins for transactional fields, write-once
// for identity fields, then the loose fallback parse of the raw input when
// the extractor supplied no usable date/time. It also filters missing_fields
// down to what the session genuinely lacks.
func (r Reconciler) Merge(st *session.State, res *ExtractionResult, userInput string) {
	ex := &res.Extracted

	st.Fields["intent"] = NextIntent(st.Fields["intent"], ex.Intent, userInput)

	// Preloaded identity wins over whatever the extractor guessed.
	if st.Fields["name"] != "" {
		ex.Name = st.Fields["name"]
	}

	if ex.Date != "" {
		if d, ok := schedule.Normalize(ex.Date); ok {
			ex.Date = d
		} else {
			ex.Date = ""
		}
	}
	if ex.OldDate != "" {
		if d, ok := schedule.Normalize(ex.OldDate); ok {
			ex.OldDate = d
		} else {
			ex.OldDate = ""
		}
	}

	r.mergeField(st, "name", ex.Name)
	r.mergeField(st, "date", ex.Date)
	r.mergeField(st, "time", ex.Time)
	r.mergeField(st, "reason", ex.Reason)
	r.mergeField(st, "old_date", ex.OldDate)
	r.mergeField(st, "old_time", ex.OldTime)

	// The loose fallback only runs when the extractor pulled no slot signal
	// at all from this turn; re-parsing a mention that was already routed to
	// old_date/old_time would duplicate it into date/time. The one exception:
	// an update turn where the extractor got half the old slot pair still gets
	// the assist, routed only into the unset old_* field.
	noSignal := ex.Date == "" && ex.Time == "" && ex.OldDate == "" && ex.OldTime == ""
	halfOldSlot := st.Fields["intent"] == "update" &&
		ex.Date == "" && ex.Time == "" &&
		(ex.OldDate == "") != (ex.OldTime == "")
	if (noSignal || halfOldSlot) && userInput != "" {
		if date, tm, ok := r.Fallback.Parse(userInput); ok {
			if halfOldSlot {
				if st.Fields["old_date"] == "" {
					st.Fields["old_date"] = date
				}
				if st.Fields["old_time"] == "" {
					st.Fields["old_time"] = tm
				}
			} else {
				if st.Fields["intent"] == "update" && st.Fields["old_date"] == "" {
					st.Fields["old_date"] = date
				} else if st.Fields["date"] == "" {
					st.Fields["date"] = date
				}
				if st.Fields["intent"] == "update" && st.Fields["old_time"] == "" {
					st.Fields["old_time"] = tm
				} else if st.Fields["time"] == "" {
					st.Fields["time"] = tm
				}
			}
		}
	}

	res.MissingFields = filterMissing(st, res.MissingFields)
}

// mergeField writes a non-empty value into the session, honoring the
// write-once rule for identity fields.
func (r Reconciler) mergeField(st *session.State, key, value string) {
	if value == "" {
		return
	}
	if isIdentityField(key) && st.Fields[key] != "" {
		return
	}
	st.Fields[key] = value
}

func isIdentityField(key string) bool {
	for _, k := range session.IdentityFields {
		if k == key {
			return true
		}
	}
	return false
}

// filterMissing drops fields the session already satisfies, so the composer
// never re-asks for preloaded identity data.
func filterMissing(st *session.State, missing []string) []string {
	out := missing[:0]
	for _, f := range missing {
		if st.Fields[f] == "" {
			out = append(out, f)
		}
	}
	return out
}
