package transform

// MapResult is a mapped position plus whether the content around it was
// deleted.
type MapResult struct {
	Pos     int
	Deleted bool
}

// Mappable maps positions from one document version to another.
type Mappable interface {
	Map(pos, assoc int) int
	MapResult(pos, assoc int) MapResult
}

// StepMap records the replaced ranges of a step as triples of start, old
// size and new size.
type StepMap struct {
	ranges []int
}

// EmptyStepMap leaves every position unchanged.
var EmptyStepMap = &StepMap{}

func NewStepMap(ranges []int) *StepMap {
	if len(ranges) == 0 {
		return EmptyStepMap
	}
	return &StepMap{ranges: ranges}
}

// Ranges returns the start, old size and new size triples.
func (m *StepMap) Ranges() []int { return m.ranges }

// ForEach calls f with the old and new extent of every changed range.
func (m *StepMap) ForEach(f func(oldStart, oldEnd, newStart, newEnd int)) {
	diff := 0
	for i := 0; i+2 < len(m.ranges); i += 3 {
		start, oldSize, newSize := m.ranges[i], m.ranges[i+1], m.ranges[i+2]
		f(start, start+oldSize, start+diff, start+diff+newSize)
		diff += newSize - oldSize
	}
}

func (m *StepMap) Map(pos, assoc int) int { return m.MapResult(pos, assoc).Pos }

// MapResult maps pos. assoc decides which side a position on a replaced
// boundary sticks to: negative to the left, positive to the right.
func (m *StepMap) MapResult(pos, assoc int) MapResult {
	diff := 0
	for i := 0; i+2 < len(m.ranges); i += 3 {
		start := m.ranges[i]
		if start > pos {
			break
		}
		oldSize, newSize := m.ranges[i+1], m.ranges[i+2]
		end := start + oldSize
		if pos <= end {
			side := assoc
			if oldSize > 0 {
				switch pos {
				case start:
					side = -1
				case end:
					side = 1
				}
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			edge := end
			if assoc < 0 {
				edge = start
			}
			return MapResult{Pos: result, Deleted: pos != edge}
		}
		diff += newSize - oldSize
	}
	return MapResult{Pos: pos + diff}
}

// Mapping is a pipeline of step maps.
type Mapping struct {
	maps []*StepMap
}

func (m *Mapping) AppendMap(sm *StepMap) { m.maps = append(m.maps, sm) }

// Maps returns the step maps in order.
func (m *Mapping) Maps() []*StepMap { return m.maps }

// Slice returns a mapping over the maps from index on.
func (m *Mapping) Slice(from int) *Mapping {
	return &Mapping{maps: m.maps[from:]}
}

func (m *Mapping) Map(pos, assoc int) int { return m.MapResult(pos, assoc).Pos }

func (m *Mapping) MapResult(pos, assoc int) MapResult {
	deleted := false
	for _, sm := range m.maps {
		r := sm.MapResult(pos, assoc)
		pos = r.Pos
		deleted = deleted || r.Deleted
	}
	return MapResult{Pos: pos, Deleted: deleted}
}
