package tensor

// Field is a real-valued [time, space] map stored flat in time-major order.
// Statistic functions produce one Field per evaluation; it is transient and
// never shared between permutations.
type Field struct {
	times  int
	spaces int
	data   []float64
}

// NewField allocates a zeroed field.
func NewField(times, spaces int) *Field {
	return &Field{times: times, spaces: spaces, data: make([]float64, times*spaces)}
}

// Times returns the temporal extent.
func (f *Field) Times() int { return f.times }

// Spaces returns the spatial extent.
func (f *Field) Spaces() int { return f.spaces }

// Len returns the total number of grid points.
func (f *Field) Len() int { return len(f.data) }

// Index converts (time, space) to the flat point index.
func (f *Field) Index(t, v int) int { return t*f.spaces + v }

// Coord converts a flat point index back to (time, space).
func (f *Field) Coord(idx int) (t, v int) { return idx / f.spaces, idx % f.spaces }

// At returns the value at (time, space).
func (f *Field) At(t, v int) float64 { return f.data[t*f.spaces+v] }

// AtIndex returns the value at a flat point index.
func (f *Field) AtIndex(idx int) float64 { return f.data[idx] }

// Set stores a value at (time, space).
func (f *Field) Set(t, v int, value float64) { f.data[t*f.spaces+v] = value }

// Data exposes the flat backing slice for bulk numeric kernels.
func (f *Field) Data() []float64 { return f.data }
