package wizard

// Policy captures the behavioural knobs of the authoring flow. The two
// historical variants of the exam form disagreed on strictness; instead of
// forked code paths the divergences are explicit configuration.
type Policy struct {
	// RequirePointsMatch turns the question-points vs total-points check
	// into a blocking error at the questions step.
	RequirePointsMatch bool `json:"require_points_match"`
	// RequireSession makes the session reference mandatory at scheduling.
	RequireSession bool `json:"require_session"`
	// RequireCenter makes the center reference mandatory at scheduling.
	RequireCenter bool `json:"require_center"`
	// RequireRoster demands at least one assigned student before finalize.
	RequireRoster bool `json:"require_roster"`
	// PadSeatNumbers switches generated seat labels to zero-padded 3-digit.
	PadSeatNumbers bool `json:"pad_seat_numbers"`
	// PickerLimit caps the rows returned by the manual student picker.
	PickerLimit int `json:"picker_limit"`
}

// DefaultPolicy mirrors the stricter of the two form variants for points
// matching and the lenient one everywhere else.
func DefaultPolicy() Policy {
	return Policy{
		RequirePointsMatch: true,
		RequireSession:     false,
		RequireCenter:      false,
		RequireRoster:      false,
		PadSeatNumbers:     false,
		PickerLimit:        100,
	}
}
