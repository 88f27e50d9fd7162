package application

// Color is a calendar display color.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorOrange Color = "orange"
)

var sessionColors = map[SessionType]Color{
	SessionTypeRoutineAvailable:  ColorBlue,
	SessionTypeChangeSchedule:    ColorRed,
	SessionTypeNewCompetitions:   ColorGreen,
	SessionTypeOtherVolunteering: ColorYellow,
	SessionTypeRoutineOverbooked: ColorOrange,
}

var sessionLabels = map[SessionType]string{
	SessionTypeRoutineAvailable:  "ROUTINE VOLUNTEERING STILL AVAILABLE",
	SessionTypeChangeSchedule:    "Change in schedule",
	SessionTypeNewCompetitions:   "New Competitions",
	SessionTypeOtherVolunteering: "Other Volunteering",
	SessionTypeRoutineOverbooked: "ROUTINE VOLUNTEERING OVERBOOKED",
}

// ColorFor returns the display color of a session type. Unknown types have no color.
func ColorFor(t SessionType) Color {
	return sessionColors[t]
}

// LabelFor returns the human label of a session type, or the raw type when unknown.
func LabelFor(t SessionType) string {
	if label, ok := sessionLabels[t]; ok {
		return label
	}
	return string(t)
}

// LegendEntry describes one session type below the calendar.
type LegendEntry struct {
	Type  SessionType
	Label string
	Color Color
}

// Legend returns the session types in display order.
func Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(SessionTypes))
	for _, t := range SessionTypes {
		entries = append(entries, LegendEntry{Type: t, Label: sessionLabels[t], Color: sessionColors[t]})
	}
	return entries
}
