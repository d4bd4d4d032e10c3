// Package physics provides atmospheric modelling and the physical
// constants shared by the ballistics and rigid-body packages. All values
// are SI base units.
package physics

// Physical constants.
const (
	// Gravity is standard gravitational acceleration at sea level (m/s²).
	Gravity = 9.80665

	// AirDensityStandard is air density at sea level, 15°C (kg/m³).
	AirDensityStandard = 1.225

	// TemperatureStandard is the ICAO standard sea-level temperature (K).
	TemperatureStandard = 288.15

	// PressureStandard is standard sea-level pressure (Pa).
	PressureStandard = 101325.0

	// TemperatureLapseRate is the tropospheric temperature gradient (K/m).
	TemperatureLapseRate = -0.0065

	// PressureScaleHeight is the atmospheric scale height for the
	// barometric pressure formula (m).
	PressureScaleHeight = 8400.0

	// GasConstant is the universal gas constant (J/(mol·K)).
	GasConstant = 8.314

	// MolarMassDryAir is the molar mass of dry air (kg/mol).
	MolarMassDryAir = 0.02897

	// HeatCapacityRatioAir is the heat capacity ratio for air.
	HeatCapacityRatioAir = 1.4
)

// rSpecificDryAir is the specific gas constant for dry air (J/(kg·K)).
const rSpecificDryAir = GasConstant / MolarMassDryAir
