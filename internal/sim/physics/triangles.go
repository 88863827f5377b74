package physics

// Triangles are structural faces used for area rendering and flood-fill
// bookkeeping. They are never broken individually: a triangle drops out of
// the active set when its three vertices no longer share a connected
// component (or any vertex is orphaned).
type Triangles struct {
	Count int

	A []int32
	B []int32
	C []int32

	Active []int32
}

func NewTriangles(capacity int) *Triangles {
	return &Triangles{
		A:      make([]int32, capacity),
		B:      make([]int32, capacity),
		C:      make([]int32, capacity),
		Active: make([]int32, 0, capacity),
	}
}

func (t *Triangles) Add(a, b, c int32) int32 {
	i := int32(t.Count)
	t.A[i] = a
	t.B[i] = b
	t.C[i] = c
	t.Count++
	return i
}

func (t *Triangles) RebuildActive(p *Points) {
	t.Active = t.Active[:0]
	for i := 0; i < t.Count; i++ {
		a, b, c := t.A[i], t.B[i], t.C[i]
		if p.Orphaned[a] || p.Orphaned[b] || p.Orphaned[c] {
			continue
		}
		if p.Component[a] != p.Component[b] || p.Component[a] != p.Component[c] {
			continue
		}
		t.Active = append(t.Active, int32(i))
	}
}
