package schedule

// Slot is one of the four bookable time-of-day values.
type Slot struct {
	Value string // HH:MM:SS, the wire/storage form
	Label string // human display form
}

// slots is the fixed catalog; order matters for user-facing listings.
var slots = []Slot{
	{Value: "09:00:00", Label: "9:00 AM"},
	{Value: "11:00:00", Label: "11:00 AM"},
	{Value: "15:00:00", Label: "3:00 PM"},
	{Value: "17:00:00", Label: "5:00 PM"},
}

var slotByValue = func() map[string]Slot {
	m := make(map[string]Slot, len(slots))
	for _, s := range slots {
		m[s.Value] = s
	}
	return m
}()

// Slots returns the catalog in display order.
func Slots() []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// ValidateTime reports whether t is one of the catalog values.
func ValidateTime(t string) bool {
	_, ok := slotByValue[t]
	return ok
}

// Label returns the display label for a slot value, or the value itself
// when it is not in the catalog.
func Label(t string) string {
	if s, ok := slotByValue[t]; ok {
		return s.Label
	}
	return t
}

// LabelList returns the catalog labels joined for prompts and error replies,
// e.g. "9:00 AM, 11:00 AM, 3:00 PM, or 5:00 PM".
func LabelList() string {
	return slots[0].Label + ", " + slots[1].Label + ", " + slots[2].Label + ", or " + slots[3].Label
}
