package impact

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rangeday/steelrange/ballistics"
	"github.com/rangeday/steelrange/geom"
	"github.com/rangeday/steelrange/steel"
)

// quadAt returns a unit quad facing +Z, two triangles, centered at (x, y, z).
func quadAt(x, y, z, half float64) ([]float64, []uint32) {
	verts := []float64{
		x - half, y - half, z,
		x + half, y - half, z,
		x + half, y + half, z,
		x - half, y + half, z,
	}
	return verts, []uint32{0, 1, 2, 0, 2, 3}
}

func testDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(10, -100, 100, -1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNewDetectorValidation(t *testing.T) {
	if _, err := NewDetector(0, -10, 10, -10, 10); err == nil {
		t.Error("zero cell size should be rejected")
	}
	if _, err := NewDetector(-5, -10, 10, -10, 10); err == nil {
		t.Error("negative cell size should be rejected")
	}
	if _, err := NewDetector(1, 10, -10, -10, 10); err == nil {
		t.Error("inverted extent should be rejected")
	}
}

func TestNewMeshColliderValidation(t *testing.T) {
	if _, err := NewMeshCollider([]float64{0, 0}, nil); err == nil {
		t.Error("truncated vertex array should be rejected")
	}
	verts, _ := quadAt(0, 0, 0, 1)
	if _, err := NewMeshCollider(verts, []uint32{0, 1}); err == nil {
		t.Error("truncated index array should be rejected")
	}
	if _, err := NewMeshCollider(verts, []uint32{0, 1, 9}); err == nil {
		t.Error("out-of-range index should be rejected")
	}
	// Sequential triangulation when indices are omitted.
	c, err := NewMeshCollider([]float64{0, 0, 0, 1, 0, 0, 0, 1, 0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.IntersectSegment(r3.Vec{X: 0.25, Y: 0.25, Z: 1}, r3.Vec{X: 0.25, Y: 0.25, Z: -1}, 0, 1, 0); !ok {
		t.Error("sequential triangle should be hittable")
	}
}

func TestMeshSegmentHit(t *testing.T) {
	d := testDetector(t)
	verts, idx := quadAt(0, 0, -50, 1)
	h, err := d.AddMeshCollider(verts, idx, 7)
	if err != nil {
		t.Fatal(err)
	}
	_ = h

	hit, ok := d.CheckSegmentCollisions(r3.Vec{}, r3.Vec{Z: -100}, 0, 0.2, 0)
	if !ok {
		t.Fatal("segment through the quad should hit")
	}
	if math.Abs(hit.Point.Z+50) > 1e-9 {
		t.Errorf("hit Z = %v, want -50", hit.Point.Z)
	}
	if math.Abs(hit.Time-0.1) > 1e-9 {
		t.Errorf("hit time = %v, want 0.1", hit.Time)
	}
	if hit.ObjectID != 7 {
		t.Errorf("ObjectID = %d, want 7", hit.ObjectID)
	}
	if math.Abs(math.Abs(hit.Normal.Z)-1) > 1e-9 {
		t.Errorf("normal = %+v, want along Z", hit.Normal)
	}

	// A segment stopping short of the quad misses.
	if _, ok := d.CheckSegmentCollisions(r3.Vec{}, r3.Vec{Z: -40}, 0, 0.1, 0); ok {
		t.Error("short segment should miss")
	}
}

func TestAABBRejectSkipsTriangles(t *testing.T) {
	verts, idx := quadAt(50, 0, -300, 1)
	c, err := NewMeshCollider(verts, idx)
	if err != nil {
		t.Fatal(err)
	}

	// Far from the collider's AABB: the slab test rejects before any
	// triangle is touched.
	if _, ok := c.IntersectSegment(r3.Vec{X: -50, Z: -250}, r3.Vec{X: -50, Z: -350}, 0, 1, 0); ok {
		t.Fatal("distant segment should miss")
	}
	if c.TriangleTests() != 0 {
		t.Errorf("TriangleTests() = %d after AABB reject, want 0", c.TriangleTests())
	}

	if _, ok := c.IntersectSegment(r3.Vec{X: 50, Z: -250}, r3.Vec{X: 50, Z: -350}, 0, 1, 0); !ok {
		t.Fatal("direct segment should hit")
	}
	if c.TriangleTests() == 0 {
		t.Error("narrow phase should have tested triangles")
	}
}

func TestDegenerateTrianglesSkipped(t *testing.T) {
	// All three vertices collinear: no hit, no panic.
	c, err := NewMeshCollider([]float64{0, 0, 0, 1, 0, 0, 2, 0, 0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.IntersectSegment(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 1, Y: -1, Z: -1}, 0, 1, 0); ok {
		t.Error("degenerate triangle should never hit")
	}
}

func TestEarliestHitWins(t *testing.T) {
	d := testDetector(t)
	farVerts, farIdx := quadAt(0, 0, -80, 1)
	nearVerts, nearIdx := quadAt(0, 0, -30, 1)
	if _, err := d.AddMeshCollider(farVerts, farIdx, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddMeshCollider(nearVerts, nearIdx, 1); err != nil {
		t.Fatal(err)
	}

	hit, ok := d.CheckSegmentCollisions(r3.Vec{}, r3.Vec{Z: -100}, 0, 1, 0)
	if !ok {
		t.Fatal("segment should hit")
	}
	if hit.ObjectID != 1 {
		t.Errorf("ObjectID = %d, want the nearer collider", hit.ObjectID)
	}
}

func TestEnableDisable(t *testing.T) {
	d := testDetector(t)
	verts, idx := quadAt(0, 0, -50, 1)
	h, err := d.AddMeshCollider(verts, idx, 1)
	if err != nil {
		t.Fatal(err)
	}

	if !d.IsColliderEnabled(h) {
		t.Error("fresh collider should be enabled")
	}
	d.SetColliderEnabled(h, false)
	if d.IsColliderEnabled(h) {
		t.Error("disable did not stick")
	}
	if _, ok := d.CheckSegmentCollisions(r3.Vec{}, r3.Vec{Z: -100}, 0, 1, 0); ok {
		t.Error("disabled collider should not hit")
	}
	d.SetColliderEnabled(h, true)
	if _, ok := d.CheckSegmentCollisions(r3.Vec{}, r3.Vec{Z: -100}, 0, 1, 0); !ok {
		t.Error("re-enabled collider should hit")
	}
}

func TestUnknownHandleNoOps(t *testing.T) {
	d := testDetector(t)
	const ghost = Handle(42)

	d.MoveCollider(ghost, geom.Identity())
	d.RemoveCollider(ghost)
	d.SetColliderEnabled(ghost, true)
	if d.IsColliderEnabled(ghost) {
		t.Error("unknown handle should report disabled")
	}
	if d.NumColliders() != 0 {
		t.Errorf("NumColliders() = %d, want 0", d.NumColliders())
	}
}

func TestMoveCollider(t *testing.T) {
	d := testDetector(t)
	verts, idx := quadAt(0, 0, 0, 1)
	h, err := d.AddMeshCollider(verts, idx, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Put the quad 50 m downrange.
	d.MoveCollider(h, geom.NewPose(r3.Vec{Z: -50}, geom.IdentityRotation()))

	if _, ok := d.CheckSegmentCollisions(r3.Vec{Z: -40}, r3.Vec{Z: -60}, 0, 1, 0); !ok {
		t.Error("moved collider should hit at its new position")
	}
	if _, ok := d.CheckSegmentCollisions(r3.Vec{Z: 1}, r3.Vec{Z: -10}, 0, 1, 0); ok {
		t.Error("old position should be empty")
	}

	d.RemoveCollider(h)
	if _, ok := d.CheckSegmentCollisions(r3.Vec{Z: -40}, r3.Vec{Z: -60}, 0, 1, 0); ok {
		t.Error("removed collider should not hit")
	}
}

func TestSteelColliderTracksTarget(t *testing.T) {
	d := testDetector(t)
	plate, err := steel.NewTargetAt(steel.Rectangle, 0.4, 0.4, 0.01, r3.Vec{Z: -300}, r3.Vec{Z: 1})
	if err != nil {
		t.Fatal(err)
	}
	sc, err := NewSteelCollider(plate, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	h := d.AddSteelCollider(sc, 5)

	hit, ok := d.CheckSegmentCollisions(r3.Vec{Z: -299}, r3.Vec{Z: -301}, 1.0, 1.01, 0.004)
	if !ok {
		t.Fatal("segment through the plate should hit")
	}
	if hit.ObjectID != 5 {
		t.Errorf("ObjectID = %d, want 5", hit.ObjectID)
	}
	if hit.Time < 1.0 || hit.Time > 1.01 {
		t.Errorf("hit time %v outside the leg interval", hit.Time)
	}

	// The plate swings away; refreshing the collider moves its cells.
	plate.Translate(r3.Vec{X: 30})
	d.MoveCollider(h, geom.Identity())

	if _, ok := d.CheckSegmentCollisions(r3.Vec{Z: -299}, r3.Vec{Z: -301}, 0, 1, 0); ok {
		t.Error("plate moved away, old lane should be clear")
	}
	if _, ok := d.CheckSegmentCollisions(r3.Vec{X: 30, Z: -299}, r3.Vec{X: 30, Z: -301}, 0, 1, 0); !ok {
		t.Error("plate should be hittable at its new lane")
	}
}

func TestNewSteelColliderValidation(t *testing.T) {
	if _, err := NewSteelCollider(nil, 1); err == nil {
		t.Error("nil target should be rejected")
	}
	plate, _ := steel.NewTarget(steel.Rectangle, 0.3, 0.3, 0.01)
	if _, err := NewSteelCollider(plate, 0); err == nil {
		t.Error("zero radius should be rejected")
	}
}

func TestFindFirstImpact(t *testing.T) {
	d := testDetector(t)
	verts, idx := quadAt(0, 0, -500, 1)
	if _, err := d.AddMeshCollider(verts, idx, 3); err != nil {
		t.Fatal(err)
	}

	// Straight-line flight at 100 m/s toward -Z, sampled every 0.1 s.
	var traj ballistics.Trajectory
	for i := 0; i <= 100; i++ {
		tm := float64(i) * 0.1
		traj.Append(ballistics.Point{
			Time:     tm,
			Position: r3.Vec{Z: -100 * tm},
			Velocity: r3.Vec{Z: -100},
		})
	}

	hit, ok := d.FindFirstImpact(&traj, 0, 10, 0.004)
	if !ok {
		t.Fatal("flight through the quad should hit")
	}
	if math.Abs(hit.Time-5.0) > 1e-6 {
		t.Errorf("hit time = %v, want 5.0", hit.Time)
	}
	if hit.ObjectID != 3 {
		t.Errorf("ObjectID = %d, want 3", hit.ObjectID)
	}

	// A window ending before the quad is reached finds nothing.
	if _, ok := d.FindFirstImpact(&traj, 0, 4.8, 0.004); ok {
		t.Error("window ending early should miss")
	}
	// A window starting mid-leg still catches the straddling leg.
	if _, ok := d.FindFirstImpact(&traj, 4.95, 10, 0.004); !ok {
		t.Error("window starting mid-leg should still hit")
	}
	// A window after the crossing finds nothing.
	if _, ok := d.FindFirstImpact(&traj, 5.2, 10, 0.004); ok {
		t.Error("window after the crossing should miss")
	}
}
