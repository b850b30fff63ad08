package entities

// DefaultEntryType is the dosage form preselected for a new line.
const DefaultEntryType = "Tab"

// CartEntry is one prescription line. ID is assigned once at creation.
type CartEntry struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Dosage  string `json:"dosage"`
	Timings string `json:"timings"`
	Days    string `json:"days"`
	Remarks string `json:"remarks"`
}

// Draft carries the field values of a line that has not been committed yet.
type Draft struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Dosage  string `json:"dosage"`
	Timings string `json:"timings"`
	Days    string `json:"days"`
	Remarks string `json:"remarks"`
}

// Draft returns the entry's field values without its identity.
func (e CartEntry) Draft() Draft {
	t := e.Type
	if t == "" {
		t = DefaultEntryType
	}
	return Draft{
		Type:    t,
		Name:    e.Name,
		Dosage:  e.Dosage,
		Timings: e.Timings,
		Days:    e.Days,
		Remarks: e.Remarks,
	}
}
