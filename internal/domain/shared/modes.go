package shared

// DashboardType selects one of the presentation modes over a workspace.
type DashboardType string

const (
	DashboardAnalysis DashboardType = "analysis"
	DashboardWorkflow DashboardType = "workflow"
	DashboardCombined DashboardType = "combined"
)

// Valid reports whether d is a known dashboard.
func (d DashboardType) Valid() bool {
	switch d {
	case DashboardAnalysis, DashboardWorkflow, DashboardCombined:
		return true
	}
	return false
}

// LayoutDirection is the flow direction used when laying out the canvas.
type LayoutDirection string

const (
	LayoutHorizontal LayoutDirection = "horizontal"
	LayoutVertical   LayoutDirection = "vertical"
)

// Valid reports whether l is one of the two layout directions.
func (l LayoutDirection) Valid() bool {
	return l == LayoutHorizontal || l == LayoutVertical
}

// Toggle flips between horizontal and vertical. Anything that is not
// vertical toggles to vertical.
func (l LayoutDirection) Toggle() LayoutDirection {
	if l == LayoutVertical {
		return LayoutHorizontal
	}
	return LayoutVertical
}
