// Package impact finds the earliest collision between a bullet's flight
// path and a set of registered colliders. A uniform grid over the
// horizontal plane prunes the broad phase; narrow-phase tests run per
// collider.
package impact

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rangeday/steelrange/geom"
	"github.com/rangeday/steelrange/steel"
)

// Hit describes the earliest collision found on a segment or flight path.
type Hit struct {
	Point    r3.Vec
	Normal   r3.Vec
	Time     float64
	ObjectID int
}

// Collider is a narrow-phase shape the detector can register. Bounds
// must reflect the collider's current world pose.
type Collider interface {
	SetPose(pose geom.Pose)
	Bounds() (min, max r3.Vec)
	IntersectSegment(start, end r3.Vec, tStart, tEnd, bulletRadius float64) (Hit, bool)
}

// segmentIntersectsAABB runs the slab method on each axis, treating the
// segment as a ray clipped to parameter [0, 1].
func segmentIntersectsAABB(start, end, min, max r3.Vec) bool {
	dir := r3.Sub(end, start)
	tMin, tMax := 0.0, 1.0

	axes := [3][3]float64{
		{dir.X, start.X, 0}, {dir.Y, start.Y, 0}, {dir.Z, start.Z, 0},
	}
	mins := [3]float64{min.X, min.Y, min.Z}
	maxs := [3]float64{max.X, max.Y, max.Z}

	for i, ax := range axes {
		d, s := ax[0], ax[1]
		inv := math.MaxFloat64
		if math.Abs(d) > 1e-12 {
			inv = 1 / d
		}
		t1 := (mins[i] - s) * inv
		t2 := (maxs[i] - s) * inv
		tMin = math.Max(tMin, math.Min(t1, t2))
		tMax = math.Min(tMax, math.Max(t1, t2))
		if tMin > tMax {
			return false
		}
	}
	return true
}

// MeshCollider tests a triangle mesh held in a local frame. The mesh is
// immutable after construction; only the pose moves.
type MeshCollider struct {
	vertices []r3.Vec
	indices  []uint32
	pose     geom.Pose

	localMin r3.Vec
	localMax r3.Vec
	worldMin r3.Vec
	worldMax r3.Vec

	triangleTests int
}

// NewMeshCollider builds a collider from a flat vertex array (x, y, z
// triples) and triangle indices. Empty indices mean sequential
// triangulation of the vertices.
func NewMeshCollider(vertices []float64, indices []uint32) (*MeshCollider, error) {
	if len(vertices)%3 != 0 {
		return nil, fmt.Errorf("impact: vertex array length %d is not a multiple of 3", len(vertices))
	}

	c := &MeshCollider{pose: geom.Identity()}
	c.vertices = make([]r3.Vec, 0, len(vertices)/3)
	for i := 0; i < len(vertices); i += 3 {
		c.vertices = append(c.vertices, r3.Vec{X: vertices[i], Y: vertices[i+1], Z: vertices[i+2]})
	}

	if len(indices) == 0 {
		c.indices = make([]uint32, len(c.vertices))
		for i := range c.indices {
			c.indices[i] = uint32(i)
		}
	} else {
		c.indices = append([]uint32(nil), indices...)
	}
	if len(c.indices)%3 != 0 {
		return nil, fmt.Errorf("impact: index count %d is not a multiple of 3", len(c.indices))
	}
	for _, idx := range c.indices {
		if int(idx) >= len(c.vertices) {
			return nil, fmt.Errorf("impact: index %d out of range for %d vertices", idx, len(c.vertices))
		}
	}

	c.computeLocalBounds()
	c.updateWorldBounds()
	return c, nil
}

func (c *MeshCollider) computeLocalBounds() {
	if len(c.vertices) == 0 {
		return
	}
	c.localMin, c.localMax = c.vertices[0], c.vertices[0]
	for _, v := range c.vertices[1:] {
		c.localMin.X = math.Min(c.localMin.X, v.X)
		c.localMin.Y = math.Min(c.localMin.Y, v.Y)
		c.localMin.Z = math.Min(c.localMin.Z, v.Z)
		c.localMax.X = math.Max(c.localMax.X, v.X)
		c.localMax.Y = math.Max(c.localMax.Y, v.Y)
		c.localMax.Z = math.Max(c.localMax.Z, v.Z)
	}
}

func (c *MeshCollider) updateWorldBounds() {
	corners := [8]r3.Vec{
		{X: c.localMin.X, Y: c.localMin.Y, Z: c.localMin.Z},
		{X: c.localMax.X, Y: c.localMin.Y, Z: c.localMin.Z},
		{X: c.localMin.X, Y: c.localMax.Y, Z: c.localMin.Z},
		{X: c.localMax.X, Y: c.localMax.Y, Z: c.localMin.Z},
		{X: c.localMin.X, Y: c.localMin.Y, Z: c.localMax.Z},
		{X: c.localMax.X, Y: c.localMin.Y, Z: c.localMax.Z},
		{X: c.localMin.X, Y: c.localMax.Y, Z: c.localMax.Z},
		{X: c.localMax.X, Y: c.localMax.Y, Z: c.localMax.Z},
	}
	w := c.pose.ToWorld(corners[0])
	c.worldMin, c.worldMax = w, w
	for _, corner := range corners[1:] {
		w = c.pose.ToWorld(corner)
		c.worldMin.X = math.Min(c.worldMin.X, w.X)
		c.worldMin.Y = math.Min(c.worldMin.Y, w.Y)
		c.worldMin.Z = math.Min(c.worldMin.Z, w.Z)
		c.worldMax.X = math.Max(c.worldMax.X, w.X)
		c.worldMax.Y = math.Max(c.worldMax.Y, w.Y)
		c.worldMax.Z = math.Max(c.worldMax.Z, w.Z)
	}
}

// SetPose moves the mesh and recomputes its world bounds.
func (c *MeshCollider) SetPose(pose geom.Pose) {
	c.pose = pose
	c.updateWorldBounds()
}

// Bounds returns the mesh's world-space AABB.
func (c *MeshCollider) Bounds() (r3.Vec, r3.Vec) {
	return c.worldMin, c.worldMax
}

// TriangleTests returns how many ray/triangle tests the collider has
// run, for verifying that broad-phase rejection short-circuits.
func (c *MeshCollider) TriangleTests() int {
	return c.triangleTests
}

// intersectTriangle runs Möller-Trumbore for a segment parameterized on
// [0, 1]. Degenerate triangles reject via the determinant check.
func intersectTriangle(origin, dir, v0, v1, v2 r3.Vec) (float64, bool) {
	const eps = 1e-12

	edge1 := r3.Sub(v1, v0)
	edge2 := r3.Sub(v2, v0)
	h := r3.Cross(dir, edge2)
	a := r3.Dot(edge1, h)
	if math.Abs(a) < eps {
		return 0, false
	}

	f := 1 / a
	s := r3.Sub(origin, v0)
	u := f * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}

	q := r3.Cross(s, edge1)
	v := f * r3.Dot(dir, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := f * r3.Dot(edge2, q)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// IntersectSegment finds the nearest triangle crossing on the segment.
// The hit time interpolates linearly between tStart and tEnd.
func (c *MeshCollider) IntersectSegment(start, end r3.Vec, tStart, tEnd, bulletRadius float64) (Hit, bool) {
	if !segmentIntersectsAABB(start, end, c.worldMin, c.worldMax) {
		return Hit{}, false
	}

	localStart := c.pose.ToLocal(start)
	localDir := r3.Sub(c.pose.ToLocal(end), localStart)

	closest := math.Inf(1)
	var hitLocal, normalLocal r3.Vec
	found := false

	for i := 0; i+2 < len(c.indices); i += 3 {
		v0 := c.vertices[c.indices[i]]
		v1 := c.vertices[c.indices[i+1]]
		v2 := c.vertices[c.indices[i+2]]

		c.triangleTests++
		t, ok := intersectTriangle(localStart, localDir, v0, v1, v2)
		if !ok || t >= closest {
			continue
		}

		n := r3.Cross(r3.Sub(v1, v0), r3.Sub(v2, v0))
		if r3.Norm(n) < 1e-12 {
			continue
		}
		closest = t
		hitLocal = r3.Add(localStart, r3.Scale(t, localDir))
		normalLocal = r3.Unit(n)
		found = true
	}
	if !found {
		return Hit{}, false
	}

	return Hit{
		Point:  c.pose.ToWorld(hitLocal),
		Normal: c.pose.DirToWorld(normalLocal),
		Time:   tStart + (tEnd-tStart)*closest,
	}, true
}

// SteelCollider wraps a steel plate. Its AABB is a cube of the given
// radius around the plate's center of mass, and the narrow phase
// delegates to the plate's own segment test.
type SteelCollider struct {
	target *steel.Target
	radius float64
}

// NewSteelCollider wraps a plate with a bounding radius that should
// cover the plate and its swing envelope.
func NewSteelCollider(target *steel.Target, radius float64) (*SteelCollider, error) {
	if target == nil {
		return nil, fmt.Errorf("impact: steel collider needs a target")
	}
	if radius <= 0 {
		return nil, fmt.Errorf("impact: steel collider radius must be positive, got %v", radius)
	}
	return &SteelCollider{target: target, radius: radius}, nil
}

// SetPose refreshes the bounds from the plate's current position. Steel
// colliders track their plate, so the pose argument is ignored.
func (c *SteelCollider) SetPose(geom.Pose) {}

// Bounds returns the cube around the plate's center of mass.
func (c *SteelCollider) Bounds() (r3.Vec, r3.Vec) {
	com := c.target.Position()
	r := r3.Vec{X: c.radius, Y: c.radius, Z: c.radius}
	return r3.Sub(com, r), r3.Add(com, r)
}

// Target returns the wrapped plate.
func (c *SteelCollider) Target() *steel.Target {
	return c.target
}

// IntersectSegment delegates to the plate after the AABB reject.
func (c *SteelCollider) IntersectSegment(start, end r3.Vec, tStart, tEnd, bulletRadius float64) (Hit, bool) {
	min, max := c.Bounds()
	if !segmentIntersectsAABB(start, end, min, max) {
		return Hit{}, false
	}

	sh, ok := c.target.IntersectSegment(start, end, bulletRadius)
	if !ok {
		return Hit{}, false
	}

	length := r3.Norm(r3.Sub(end, start))
	frac := 0.0
	if length > 1e-12 {
		frac = sh.Distance / length
	}
	return Hit{
		Point:  sh.Point,
		Normal: sh.Normal,
		Time:   tStart + (tEnd-tStart)*frac,
	}, true
}
