package algorithm

import (
	"errors"
	"strings"
	"testing"

	gkerrors "github.com/kbukum/spikekit/errors"
	"github.com/kbukum/spikekit/logger"
)

func points(ys ...float64) []Point {
	pts := make([]Point, len(ys))
	for i, y := range ys {
		pts[i] = Point{X: float64(i), Y: y}
	}
	return pts
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		name string
		ys   []float64
		want []int
	}{
		{"two peaks", []float64{1, 2, 5, 2, 1, 1, 2, 6, 2, 1}, []int{2, 7}},
		{"endpoints excluded", []float64{9, 1, 9}, nil},
		{"plateau is not a peak", []float64{1, 3, 3, 1}, nil},
		{"monotonic rise", []float64{1, 2, 3, 4}, nil},
		{"too short", []float64{5}, nil},
		{"empty", nil, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalMaxima{}.Detect(points(tc.ys...))
			if err != nil {
				t.Fatal(err)
			}
			if !intsEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	ys := []float64{0, 5, 0, 7, 0, 6, 0, 0, 0, 0, 4, 0}
	tests := []struct {
		name string
		d    int
		want []int
	}{
		{"zero distance keeps all", 0, []int{1, 3, 5, 10}},
		{"higher neighbour wins", 3, []int{3, 10}},
		{"wide window keeps only the max", 20, []int{3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Distance{MinDistance: tc.d}.Detect(points(ys...))
			if err != nil {
				t.Fatal(err)
			}
			if !intsEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDistance_TieKeepsEarlier(t *testing.T) {
	got, _ := Distance{MinDistance: 5}.Detect(points(0, 4, 0, 4, 0))
	if !intsEqual(got, []int{1}) {
		t.Errorf("got %v, want [1]", got)
	}
}

func TestDistance_Separation(t *testing.T) {
	ys := []float64{0, 3, 1, 4, 2, 5, 1, 6, 0, 2, 1, 3, 0}
	d := 3
	got, _ := Distance{MinDistance: d}.Detect(points(ys...))
	for k := 1; k < len(got); k++ {
		if got[k]-got[k-1] < d {
			t.Errorf("peaks %d and %d closer than %d", got[k-1], got[k], d)
		}
	}
}

func TestDistance_SuppressionIsNotGreedy(t *testing.T) {
	// 5 yields to 6, 6 yields to 7; 5 stays dropped although 7 is 6 away.
	ys := []float64{0, 5, 0, 0, 6, 0, 0, 7, 0}
	got, err := Distance{MinDistance: 4}.Detect(points(ys...))
	if err != nil {
		t.Fatal(err)
	}
	if !intsEqual(got, []int{7}) {
		t.Errorf("got %v, want [7]", got)
	}
}

func TestDistance_DecreasingX(t *testing.T) {
	pts := points(0, 5, 0, 6, 0)
	pts[3].X = 0.5
	_, err := Distance{MinDistance: 2}.Detect(pts)
	if !gkerrors.HasCode(err, gkerrors.ErrCodeInvalidArgument) {
		t.Errorf("expected INVALID_ARGUMENT, got %v", err)
	}
	if _, err := (Distance{}).Detect(pts); err != nil {
		t.Errorf("zero distance ignores x order, got %v", err)
	}
}

func TestThreshold(t *testing.T) {
	ys := []float64{1, 1, 1, 1, 1, 9, 1, 1, 1.2, 1}
	s, err := newThreshold(Params{Extra: map[string]any{OptionLag: 4, OptionThresholdFactor: 2}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Detect(points(ys...))
	if err != nil {
		t.Fatal(err)
	}
	if !intsEqual(got, []int{5}) {
		t.Errorf("got %v, want [5]", got)
	}
	if w := WindowOf(s, 30); w != (Window{Behind: 4, Ahead: 1}) {
		t.Errorf("window = %+v, want {4 1 0}", w)
	}
}

func TestThreshold_BadExtra(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]any
		code  gkerrors.ErrorCode
	}{
		{"lag not a number", map[string]any{OptionLag: "abc"}, gkerrors.ErrCodeTypeMismatch},
		{"lag too small", map[string]any{OptionLag: 1}, gkerrors.ErrCodeInvalidArgument},
		{"factor not a number", map[string]any{OptionThresholdFactor: []int{1}}, gkerrors.ErrCodeTypeMismatch},
		{"negative factor", map[string]any{OptionThresholdFactor: -1.0}, gkerrors.ErrCodeInvalidArgument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newThreshold(Params{Extra: tc.extra})
			if !gkerrors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestRegistry_Builtin(t *testing.T) {
	r := Builtin()
	want := []string{NameDefault, NameDistance, NameThreshold}
	got := r.List()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", got, want)
	}
	for _, name := range want {
		s, err := r.Resolve(name, Params{MinPeakDistance: 30})
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Resolve(%q).Name() = %q", name, s.Name())
		}
	}
}

func TestRegistry_UnknownName(t *testing.T) {
	for _, name := range []string{"wavelet", "", "../default", "a/b", ".."} {
		_, err := Builtin().Resolve(name, Params{})
		if !gkerrors.HasCode(err, gkerrors.ErrCodeConfiguration) {
			t.Errorf("Resolve(%q): expected CONFIGURATION_ERROR, got %v", name, err)
		}
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("a/b", newLocalMaxima); !gkerrors.HasCode(err, gkerrors.ErrCodeInvalidArgument) {
		t.Errorf("expected INVALID_ARGUMENT for nested name, got %v", err)
	}
	if err := r.Register("custom", nil); err == nil {
		t.Error("expected error for nil factory")
	}
	if err := r.Register("custom", newLocalMaxima); err != nil {
		t.Fatal(err)
	}
	if !r.Has("custom") || r.Has("other") {
		t.Error("Has() mismatch")
	}
	if Path("custom") != "algorithms/custom" {
		t.Errorf("Path() = %q", Path("custom"))
	}
}

func TestStrategyFunc_DefaultWindow(t *testing.T) {
	f := StrategyFunc(func(pts []Point) ([]int, error) { return nil, nil })
	tests := []struct {
		minDistance int
		want        Window
	}{
		{0, Window{Behind: 1, Ahead: 1}},
		{-2, Window{Behind: 1, Ahead: 1}},
		{30, Window{Behind: 31, Ahead: 31, Span: 30}},
	}
	for _, tc := range tests {
		if got := WindowOf(f, tc.minDistance); got != tc.want {
			t.Errorf("WindowOf(f, %d) = %+v, want %+v", tc.minDistance, got, tc.want)
		}
		wrapped := Chain(WithRecover(), WithLogging(logger.Nop()))(f)
		if got := WindowOf(wrapped, tc.minDistance); got != tc.want {
			t.Errorf("wrapped WindowOf(f, %d) = %+v, want %+v", tc.minDistance, got, tc.want)
		}
	}
	if f.Name() != "func" {
		t.Errorf("Name() = %q", f.Name())
	}
}

func TestWithRecover(t *testing.T) {
	panicky := StrategyFunc(func(pts []Point) ([]int, error) { panic("kaboom") })
	_, err := WithRecover()(panicky).Detect(points(1, 2, 1))
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("expected recovered panic, got %v", err)
	}
}

func TestChain_PreservesWindowAndErrors(t *testing.T) {
	failing := StrategyFunc(func(pts []Point) ([]int, error) { return nil, errors.New("nope") })
	s := Chain(WithRecover(), WithLogging(logger.Nop()))(Distance{MinDistance: 4})
	if w := WindowOf(s, 0); w != (Window{Behind: 1, Ahead: 1, Span: 4}) {
		t.Errorf("window = %+v, want {1 1 4}", w)
	}
	if s.Name() != NameDistance {
		t.Errorf("Name() = %q", s.Name())
	}
	if _, err := Chain(WithLogging(logger.Nop()))(failing).Detect(nil); err == nil {
		t.Error("expected error to pass through middleware")
	}
}
