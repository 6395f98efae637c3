package model

// LabelDef describes one entry of the predefined card label catalog.
type LabelDef struct {
	Value string
	Name  string
	Color string
}

// CardLabels is the predefined catalog offered when editing a card.
// Cards may still carry free-form labels outside this list.
var CardLabels = []LabelDef{
	{Value: "bug", Name: "Bug", Color: "red"},
	{Value: "feature", Name: "Feature", Color: "blue"},
	{Value: "enhancement", Name: "Enhancement", Color: "green"},
	{Value: "documentation", Name: "Documentation", Color: "purple"},
	{Value: "urgent", Name: "Urgent", Color: "orange"},
	{Value: "blocked", Name: "Blocked", Color: "red"},
	{Value: "in-progress", Name: "In Progress", Color: "yellow"},
	{Value: "review", Name: "Review", Color: "indigo"},
	{Value: "testing", Name: "Testing", Color: "pink"},
	{Value: "design", Name: "Design", Color: "purple"},
	{Value: "backend", Name: "Backend", Color: "blue"},
	{Value: "frontend", Name: "Frontend", Color: "indigo"},
	{Value: "database", Name: "Database", Color: "gray"},
	{Value: "api", Name: "API", Color: "green"},
	{Value: "security", Name: "Security", Color: "red"},
	{Value: "performance", Name: "Performance", Color: "orange"},
}

// LookupLabel returns the catalog entry for value. Unknown labels get a
// gray entry named after the raw value.
func LookupLabel(value string) LabelDef {
	for _, l := range CardLabels {
		if l.Value == value {
			return l
		}
	}
	return LabelDef{Value: value, Name: value, Color: "gray"}
}

// ColumnColors lists the background colors a column may use.
var ColumnColors = []string{
	"gray", "red", "orange", "amber", "yellow",
	"lime", "green", "teal", "blue", "purple",
}

// IsColumnColor reports whether c is one of ColumnColors.
func IsColumnColor(c string) bool {
	for _, known := range ColumnColors {
		if known == c {
			return true
		}
	}
	return false
}
