package telemetry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rangeday/steelrange/ballistics"
	"github.com/rangeday/steelrange/impact"
)

// TrajectoryRecord is one sampled point along a simulated shot.
type TrajectoryRecord struct {
	Time     float64 `csv:"time_s"`
	Distance float64 `csv:"distance_m"`
	X        float64 `csv:"x_m"`
	Y        float64 `csv:"y_m"`
	Z        float64 `csv:"z_m"`
	VX       float64 `csv:"vx_ms"`
	VY       float64 `csv:"vy_ms"`
	VZ       float64 `csv:"vz_ms"`
	Speed    float64 `csv:"speed_ms"`
	Mach     float64 `csv:"mach"`
	Energy   float64 `csv:"energy_j"`
}

// NewTrajectoryRecord converts a trajectory point for a bullet of the
// given mass, with Mach relative to the given speed of sound.
func NewTrajectoryRecord(p ballistics.Point, mass, speedOfSound float64) TrajectoryRecord {
	return TrajectoryRecord{
		Time:     p.Time,
		Distance: p.Distance(),
		X:        p.Position.X,
		Y:        p.Position.Y,
		Z:        p.Position.Z,
		VX:       p.Velocity.X,
		VY:       p.Velocity.Y,
		VZ:       p.Velocity.Z,
		Speed:    p.Speed(),
		Mach:     p.Speed() / speedOfSound,
		Energy:   p.KineticEnergy(mass),
	}
}

// ImpactRecord describes a detected hit on a collider.
type ImpactRecord struct {
	Time     float64 `csv:"time_s"`
	ObjectID int     `csv:"object_id"`
	X        float64 `csv:"x_m"`
	Y        float64 `csv:"y_m"`
	Z        float64 `csv:"z_m"`
	NormalX  float64 `csv:"normal_x"`
	NormalY  float64 `csv:"normal_y"`
	NormalZ  float64 `csv:"normal_z"`
	Speed    float64 `csv:"speed_ms"`
	Energy   float64 `csv:"energy_j"`
}

// NewImpactRecord converts a detector hit, taking the bullet state at
// impact from the trajectory point nearest the hit time.
func NewImpactRecord(h impact.Hit, p ballistics.Point, mass float64) ImpactRecord {
	return ImpactRecord{
		Time:     h.Time,
		ObjectID: h.ObjectID,
		X:        h.Point.X,
		Y:        h.Point.Y,
		Z:        h.Point.Z,
		NormalX:  h.Normal.X,
		NormalY:  h.Normal.Y,
		NormalZ:  h.Normal.Z,
		Speed:    p.Speed(),
		Energy:   p.KineticEnergy(mass),
	}
}

// WindRecord is one sampled wind vector, used to log the field seen
// along the range at a given simulation time.
type WindRecord struct {
	Time  float64 `csv:"time_s"`
	X     float64 `csv:"x_m"`
	Z     float64 `csv:"z_m"`
	WindX float64 `csv:"wind_x_ms"`
	WindZ float64 `csv:"wind_z_ms"`
}

// NewWindRecord captures a wind sample at the given position and time.
func NewWindRecord(time float64, pos, sample r3.Vec) WindRecord {
	return WindRecord{
		Time:  time,
		X:     pos.X,
		Z:     pos.Z,
		WindX: sample.X,
		WindZ: sample.Z,
	}
}
