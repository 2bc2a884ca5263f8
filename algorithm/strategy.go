package algorithm

// Point is an XY point derived from a raw item.
type Point struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Strategy identifies peaks in an ordered run of points.
type Strategy interface {
	// Name returns the strategy's identifier.
	Name() string
	// Detect returns the ascending indices into points of the detected peaks.
	Detect(points []Point) ([]int, error)
}

// Window is the part of a series around a point that a strategy reads to
// classify it. Behind and Ahead count points. Span, when positive, is a
// distance along X that must be covered on both sides as well; it assumes
// X never decreases along the series.
type Window struct {
	Behind int
	Ahead  int
	Span   float64
}

// Windowed is implemented by strategies that declare their Window.
type Windowed interface {
	Window() Window
}

// WindowOf returns the window the stream runner must keep for s.
//
// Middleware is looked through. A strategy that does not declare a window
// is assumed to honor minDistance along X the way Distance does, so it
// gets minDistance+1 points and a span of minDistance on each side.
func WindowOf(s Strategy, minDistance int) Window {
	for {
		if w, ok := s.(Windowed); ok {
			win := w.Window()
			win.Behind = max(win.Behind, 0)
			win.Ahead = max(win.Ahead, 0)
			win.Span = max(win.Span, 0)
			return win
		}
		u, ok := s.(interface{ Unwrap() Strategy })
		if !ok {
			break
		}
		s = u.Unwrap()
	}
	d := max(minDistance, 0)
	return Window{Behind: d + 1, Ahead: d + 1, Span: float64(d)}
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(points []Point) ([]int, error)

// Name implements Strategy.
func (f StrategyFunc) Name() string { return "func" }

// Detect implements Strategy.
func (f StrategyFunc) Detect(points []Point) ([]int, error) { return f(points) }

// Params carries the settings a factory needs to build a strategy.
type Params struct {
	MinPeakDistance int
	MinPeakHeight   float64
	// Extra holds option keys the detector does not recognize itself,
	// untouched, so strategies can define their own tuning knobs.
	Extra map[string]any
}

// Factory creates a strategy from params.
type Factory func(p Params) (Strategy, error)
