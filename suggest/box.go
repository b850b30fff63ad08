package suggest

import (
	"strings"
	"sync"

	"github.com/giygas/rxcomposer/entities"
)

// State of the candidate list.
type State int

const (
	Idle State = iota
	Querying
	Showing
)

func (s State) String() string {
	switch s {
	case Querying:
		return "querying"
	case Showing:
		return "showing"
	default:
		return "idle"
	}
}

// Keys handled by KeyDown.
const (
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
)

// Invalidation events that require repositioning.
const (
	EventResize          = "resize"
	EventScroll          = "scroll"
	EventAnchorResize    = "anchor-resize"
	EventContainerResize = "container-resize"
)

// Field is an editable text input.
type Field interface {
	Value() string
	SetValue(string)
}

// Focuser moves keyboard focus between the name input, the dosage input and
// the rendered candidates.
type Focuser interface {
	FocusInput()
	FocusDosage()
	FocusItem(i int)
}

// Geometry reports the current layout of the anchor input and its container.
type Geometry interface {
	Anchor() Rect
	Container() Rect
}

// View is what the list renderer draws.
type View struct {
	State     State               `json:"state"`
	Visible   bool                `json:"visible"`
	Items     []entities.Medicine `json:"items"`
	Focused   int                 `json:"focused"`
	Placement Placement           `json:"placement"`
}

// BoxOptions binds a Box to its collaborators. Any of them may be nil.
type BoxOptions struct {
	Name     Field
	Dosage   Field
	Focus    Focuser
	Geometry Geometry
	// Render is called after every visible change.
	Render func(View)
	// OnSelect is called after a candidate was written into the fields.
	OnSelect  func(entities.Medicine)
	Debouncer *Debouncer
}

// Box is the candidate list attached to the medicine name input.
// Focused is -1 while focus is on the input.
type Box struct {
	mu        sync.Mutex
	matcher   *Matcher
	opts      BoxOptions
	debouncer *Debouncer
	state     State
	items     []entities.Medicine
	focused   int
	placement Placement
}

func NewBox(matcher *Matcher, opts BoxOptions) *Box {
	d := opts.Debouncer
	if d == nil {
		d = NewDebouncer(DefaultDebounce, nil)
	}
	return &Box{matcher: matcher, opts: opts, debouncer: d, focused: -1}
}

// Input reacts to a text change in the name field. Blank text hides the list
// at once; anything else schedules a debounced match.
func (b *Box) Input(text string) {
	if strings.TrimSpace(text) == "" {
		b.debouncer.Cancel()
		b.reset()
		return
	}

	b.mu.Lock()
	b.state = Querying
	b.focused = -1
	b.mu.Unlock()

	b.debouncer.Trigger(func() { b.show(b.matcher.Match(text)) })
}

// Flush runs a pending debounced match immediately.
func (b *Box) Flush() bool {
	return b.debouncer.Flush()
}

// show drops results that arrive after the query was dismissed.
func (b *Box) show(items []entities.Medicine) {
	b.mu.Lock()
	if b.state != Querying {
		b.mu.Unlock()
		return
	}
	if len(items) == 0 {
		b.mu.Unlock()
		b.reset()
		return
	}

	b.state = Showing
	b.items = items
	b.focused = -1
	b.placement = b.place()
	v := b.viewLocked()
	b.mu.Unlock()

	b.render(v)
}

// KeyDown handles a key pressed on the input or a candidate. It reports
// whether the key was consumed.
func (b *Box) KeyDown(key string) bool {
	b.mu.Lock()
	visible := b.state == Showing
	focused := b.focused
	count := len(b.items)
	b.mu.Unlock()

	if focused < 0 {
		switch key {
		case KeyArrowDown:
			if visible && count > 0 {
				b.moveFocus(0)
			}
			return true
		case KeyEscape:
			b.debouncer.Cancel()
			b.reset()
			return false
		case KeyEnter:
			if !visible {
				if b.opts.Focus != nil {
					b.opts.Focus.FocusDosage()
				}
				return true
			}
		}
		return false
	}
	if !visible {
		return false
	}

	switch key {
	case KeyEnter:
		b.Select(focused)
	case KeyArrowDown:
		if focused+1 < count {
			b.moveFocus(focused + 1)
		}
	case KeyArrowUp:
		b.moveFocus(focused - 1)
	case KeyEscape:
		b.reset()
		if b.opts.Focus != nil {
			b.opts.Focus.FocusInput()
		}
	default:
		return false
	}
	return true
}

func (b *Box) moveFocus(i int) {
	b.mu.Lock()
	b.focused = i
	v := b.viewLocked()
	b.mu.Unlock()

	if b.opts.Focus != nil {
		if i < 0 {
			b.opts.Focus.FocusInput()
		} else {
			b.opts.Focus.FocusItem(i)
		}
	}
	b.render(v)
}

// Click selects the candidate at i.
func (b *Box) Click(i int) bool {
	return b.Select(i)
}

// Select writes candidate i into the name and dosage fields, hides the list
// and focuses dosage. Out of range is a no-op.
func (b *Box) Select(i int) bool {
	b.mu.Lock()
	if b.state != Showing || i < 0 || i >= len(b.items) {
		b.mu.Unlock()
		return false
	}
	item := b.items[i]
	b.mu.Unlock()

	if b.opts.Name != nil {
		b.opts.Name.SetValue(item.Name)
	}
	if b.opts.Dosage != nil {
		b.opts.Dosage.SetValue(item.Strength)
	}
	b.reset()
	if b.opts.Focus != nil {
		b.opts.Focus.FocusDosage()
	}
	if b.opts.OnSelect != nil {
		b.opts.OnSelect(item)
	}
	return true
}

// PointerOutside hides the list after a click outside the composer region.
func (b *Box) PointerOutside() {
	b.debouncer.Cancel()
	b.reset()
}

// Invalidate repositions a visible list without re-querying.
func (b *Box) Invalidate(event string) {
	b.mu.Lock()
	if b.state != Showing {
		b.mu.Unlock()
		return
	}
	b.placement = b.place()
	v := b.viewLocked()
	b.mu.Unlock()

	b.render(v)
}

// View returns the current list state.
func (b *Box) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

func (b *Box) reset() {
	b.mu.Lock()
	wasVisible := b.state == Showing
	b.state = Idle
	b.items = nil
	b.focused = -1
	v := b.viewLocked()
	b.mu.Unlock()

	if wasVisible {
		b.render(v)
	}
}

func (b *Box) place() Placement {
	if b.opts.Geometry == nil {
		return Placement{Left: edgeInset, Width: minListWidth}
	}
	return Place(b.opts.Geometry.Anchor(), b.opts.Geometry.Container())
}

func (b *Box) viewLocked() View {
	items := make([]entities.Medicine, len(b.items))
	copy(items, b.items)
	return View{
		State:     b.state,
		Visible:   b.state == Showing,
		Items:     items,
		Focused:   b.focused,
		Placement: b.placement,
	}
}

func (b *Box) render(v View) {
	if b.opts.Render != nil {
		b.opts.Render(v)
	}
}

// TextField is an in-memory Field.
type TextField struct {
	mu    sync.Mutex
	value string
}

func (f *TextField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *TextField) SetValue(v string) {
	f.mu.Lock()
	f.value = v
	f.mu.Unlock()
}
