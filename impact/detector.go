package impact

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rangeday/steelrange/ballistics"
	"github.com/rangeday/steelrange/geom"
)

// Handle identifies a registered collider.
type Handle int

type entry struct {
	collider Collider
	objectID int
	enabled  bool

	// cached bounds, refreshed on add and move
	min r3.Vec
	max r3.Vec
}

type cellRange struct {
	minX, maxX int
	minZ, maxZ int
}

// Detector owns a uniform grid over the horizontal X/Z plane. Colliders
// register into every cell their AABB overlaps; segment queries only
// visit colliders in cells the segment's footprint touches.
type Detector struct {
	cellSize   float64
	minX, maxX float64
	minZ, maxZ float64
	nx, nz     int

	cells     [][]Handle
	colliders map[Handle]*entry
	next      Handle
}

// NewDetector builds a grid covering the given horizontal extent.
func NewDetector(cellSize, minX, maxX, minZ, maxZ float64) (*Detector, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("impact: cell size must be positive, got %v", cellSize)
	}
	if maxX <= minX || maxZ <= minZ {
		return nil, fmt.Errorf("impact: world extent must be non-empty")
	}

	d := &Detector{
		cellSize:  cellSize,
		minX:      minX,
		maxX:      maxX,
		minZ:      minZ,
		maxZ:      maxZ,
		colliders: make(map[Handle]*entry),
	}
	d.nx = int(math.Ceil((maxX - minX) / cellSize))
	d.nz = int(math.Ceil((maxZ - minZ) / cellSize))
	if d.nx < 1 {
		d.nx = 1
	}
	if d.nz < 1 {
		d.nz = 1
	}
	d.cells = make([][]Handle, d.nx*d.nz)
	return d, nil
}

func (d *Detector) cellX(x float64) int {
	i := int((x - d.minX) / d.cellSize)
	if i < 0 {
		return 0
	}
	if i >= d.nx {
		return d.nx - 1
	}
	return i
}

func (d *Detector) cellZ(z float64) int {
	i := int((z - d.minZ) / d.cellSize)
	if i < 0 {
		return 0
	}
	if i >= d.nz {
		return d.nz - 1
	}
	return i
}

func (d *Detector) rangeFor(min, max r3.Vec) cellRange {
	return cellRange{
		minX: d.cellX(min.X), maxX: d.cellX(max.X),
		minZ: d.cellZ(min.Z), maxZ: d.cellZ(max.Z),
	}
}

func (d *Detector) insert(h Handle, r cellRange) {
	for z := r.minZ; z <= r.maxZ; z++ {
		for x := r.minX; x <= r.maxX; x++ {
			i := z*d.nx + x
			d.cells[i] = append(d.cells[i], h)
		}
	}
}

func (d *Detector) erase(h Handle, r cellRange) {
	for z := r.minZ; z <= r.maxZ; z++ {
		for x := r.minX; x <= r.maxX; x++ {
			i := z*d.nx + x
			cell := d.cells[i]
			for j := 0; j < len(cell); j++ {
				if cell[j] == h {
					cell = append(cell[:j], cell[j+1:]...)
					j--
				}
			}
			d.cells[i] = cell
		}
	}
}

// AddCollider registers any collider and returns its handle.
func (d *Detector) AddCollider(c Collider, objectID int) Handle {
	h := d.next
	d.next++

	min, max := c.Bounds()
	e := &entry{collider: c, objectID: objectID, enabled: true, min: min, max: max}
	d.colliders[h] = e
	d.insert(h, d.rangeFor(min, max))
	return h
}

// AddMeshCollider builds a mesh collider from flat vertices and indices
// and registers it.
func (d *Detector) AddMeshCollider(vertices []float64, indices []uint32, objectID int) (Handle, error) {
	c, err := NewMeshCollider(vertices, indices)
	if err != nil {
		return 0, err
	}
	return d.AddCollider(c, objectID), nil
}

// AddSteelCollider wraps a steel plate and registers it.
func (d *Detector) AddSteelCollider(target *SteelCollider, objectID int) Handle {
	return d.AddCollider(target, objectID)
}

// MoveCollider re-poses a collider and updates its grid cells. If the
// overlapped cell range is unchanged the grid is left alone. Unknown
// handles are ignored.
func (d *Detector) MoveCollider(h Handle, pose geom.Pose) {
	e, ok := d.colliders[h]
	if !ok {
		return
	}

	oldRange := d.rangeFor(e.min, e.max)
	e.collider.SetPose(pose)
	e.min, e.max = e.collider.Bounds()
	newRange := d.rangeFor(e.min, e.max)

	if oldRange == newRange {
		return
	}
	d.erase(h, oldRange)
	d.insert(h, newRange)
}

// RemoveCollider unregisters a collider. Unknown handles are ignored.
func (d *Detector) RemoveCollider(h Handle) {
	e, ok := d.colliders[h]
	if !ok {
		return
	}
	d.erase(h, d.rangeFor(e.min, e.max))
	delete(d.colliders, h)
}

// SetColliderEnabled toggles a collider without unregistering it.
// Unknown handles are ignored.
func (d *Detector) SetColliderEnabled(h Handle, enabled bool) {
	if e, ok := d.colliders[h]; ok {
		e.enabled = enabled
	}
}

// IsColliderEnabled reports whether a collider is registered and
// enabled.
func (d *Detector) IsColliderEnabled(h Handle) bool {
	e, ok := d.colliders[h]
	return ok && e.enabled
}

// NumColliders returns the number of registered colliders.
func (d *Detector) NumColliders() int {
	return len(d.colliders)
}

// CheckSegmentCollisions tests one segment against every enabled
// collider whose cells the segment's horizontal footprint overlaps, and
// returns the earliest hit by interpolated time.
func (d *Detector) CheckSegmentCollisions(start, end r3.Vec, tStart, tEnd, bulletRadius float64) (Hit, bool) {
	r := cellRange{
		minX: d.cellX(math.Min(start.X, end.X)),
		maxX: d.cellX(math.Max(start.X, end.X)),
		minZ: d.cellZ(math.Min(start.Z, end.Z)),
		maxZ: d.cellZ(math.Max(start.Z, end.Z)),
	}

	var best Hit
	bestTime := math.Inf(1)
	found := false
	tested := make(map[Handle]bool)

	for z := r.minZ; z <= r.maxZ; z++ {
		for x := r.minX; x <= r.maxX; x++ {
			for _, h := range d.cells[z*d.nx+x] {
				if tested[h] {
					continue
				}
				tested[h] = true

				e := d.colliders[h]
				if !e.enabled {
					continue
				}
				hit, ok := e.collider.IntersectSegment(start, end, tStart, tEnd, bulletRadius)
				if ok && hit.Time < bestTime {
					bestTime = hit.Time
					hit.ObjectID = e.objectID
					best = hit
					found = true
				}
			}
		}
	}
	return best, found
}

// FindFirstImpact walks a trajectory leg by leg over the time window
// [t0, t1] and returns the first collision. Legs are time ordered, so
// the first leg that reports a hit holds the globally earliest one.
func (d *Detector) FindFirstImpact(traj *ballistics.Trajectory, t0, t1, bulletRadius float64) (Hit, bool) {
	n := traj.Len()
	if n < 2 {
		return Hit{}, false
	}

	// Last sample at or before t0, so a leg straddling t0 is included.
	start := sort.Search(n, func(i int) bool { return traj.Point(i).Time > t0 }) - 1
	if start < 0 {
		start = 0
	}

	for i := start; i < n-1; i++ {
		p0 := traj.Point(i)
		p1 := traj.Point(i + 1)
		if p0.Time > t1 {
			break
		}
		if hit, ok := d.CheckSegmentCollisions(p0.Position, p1.Position, p0.Time, p1.Time, bulletRadius); ok {
			return hit, true
		}
	}
	return Hit{}, false
}
