package physics

import (
	"fmt"
	"math"
)

// Atmosphere describes the air mass a bullet flies through. It is
// immutable once constructed; derived quantities (air density, speed of
// sound) are computed from the stored state on demand.
type Atmosphere struct {
	temperature float64 // K
	altitude    float64 // m
	humidity    float64 // relative, 0..1
	pressure    float64 // Pa
}

// NewAtmosphere builds an atmosphere from explicit conditions.
// Temperature is in Kelvin, altitude in meters, humidity relative in
// [0, 1]. A non-positive pressure selects the standard pressure for the
// given altitude.
func NewAtmosphere(temperature, altitude, humidity, pressure float64) (Atmosphere, error) {
	if humidity < 0 || humidity > 1 {
		return Atmosphere{}, fmt.Errorf("physics: humidity %v outside [0, 1]", humidity)
	}
	if temperature <= 0 {
		return Atmosphere{}, fmt.Errorf("physics: temperature %v K must be positive", temperature)
	}
	if pressure <= 0 {
		pressure = standardPressure(altitude)
	}
	return Atmosphere{
		temperature: temperature,
		altitude:    altitude,
		humidity:    humidity,
		pressure:    pressure,
	}, nil
}

// Standard returns the standard sea-level atmosphere (15°C, 50% RH).
func Standard() Atmosphere {
	return Atmosphere{
		temperature: TemperatureStandard,
		altitude:    0,
		humidity:    0.5,
		pressure:    standardPressure(0),
	}
}

// AtAltitude returns a standard-lapse-rate atmosphere for the given
// altitude in meters.
func AtAltitude(altitude float64) Atmosphere {
	return Atmosphere{
		temperature: TemperatureStandard + TemperatureLapseRate*altitude,
		altitude:    altitude,
		humidity:    0.5,
		pressure:    standardPressure(altitude),
	}
}

// Temperature returns the air temperature in Kelvin.
func (a Atmosphere) Temperature() float64 { return a.temperature }

// Altitude returns the station altitude in meters.
func (a Atmosphere) Altitude() float64 { return a.altitude }

// Humidity returns the relative humidity in [0, 1].
func (a Atmosphere) Humidity() float64 { return a.humidity }

// Pressure returns the station pressure in Pascals.
func (a Atmosphere) Pressure() float64 { return a.pressure }

// AirDensity returns the humid-air density in kg/m³ using the ideal gas
// law with a vapor-pressure correction: ρ = (P − 0.378·e) / (R·T).
func (a Atmosphere) AirDensity() float64 {
	tc := a.temperature - 273.15
	// Magnus-form saturation vapor pressure (Pa).
	eSat := 611.2 * math.Exp(17.67*tc/(tc+243.5))
	e := a.humidity * eSat
	return (a.pressure - 0.378*e) / (rSpecificDryAir * a.temperature)
}

// SpeedOfSound returns the speed of sound in m/s: c = sqrt(γ·R·T).
func (a Atmosphere) SpeedOfSound() float64 {
	return math.Sqrt(HeatCapacityRatioAir * rSpecificDryAir * a.temperature)
}

func (a Atmosphere) String() string {
	return fmt.Sprintf("Atmosphere{%.2fK %.0fm %.0f%%RH %.0fPa}",
		a.temperature, a.altitude, a.humidity*100, a.pressure)
}

// standardPressure evaluates the barometric formula P = P0·exp(−h/H).
func standardPressure(altitude float64) float64 {
	return PressureStandard * math.Exp(-altitude/PressureScaleHeight)
}
