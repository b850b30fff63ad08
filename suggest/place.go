package suggest

const (
	minListWidth    = 250
	maxListWidth    = 900
	preferredWidth  = 280
	edgeInset       = 8
	rightGutter     = 12
	anchorClearance = 6
)

// Rect is a client-space box, as reported by the layout engine.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Placement positions the list relative to its container.
type Placement struct {
	Left  float64 `json:"left"`
	Top   float64 `json:"top"`
	Width float64 `json:"width"`
}

// Place puts the list just below anchor, left-aligned to it and kept inside
// container, with a width clamped to [250, 900].
func Place(anchor, container Rect) Placement {
	left := max(edgeInset, anchor.Left-container.Left)
	top := anchor.Bottom() - container.Top + anchorClearance
	maxWidth := min(container.Width-left-rightGutter, max(preferredWidth, anchor.Width))
	return Placement{
		Left:  left,
		Top:   top,
		Width: max(minListWidth, min(maxWidth, maxListWidth)),
	}
}
