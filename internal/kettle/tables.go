package kettle

import "codeberg.org/mutker/kettlectl/internal/profile"

// ADC conversion constants. The converter runs at 12-bit resolution with
// a 3.6V full scale; the sensor circuit sits behind a 2:1 divider, so
// measured millivolts are doubled to recover the original voltage.
const (
	adcMaxCode       = 4095
	adcReferenceMv   = 3600
	attenuationRatio = 2

	// Raw codes this close to zero on the thermistor channel mean a
	// floating input, not a cold sensor.
	minPlausibleRaw = 10

	// Below this junction voltage the kettle is off its base.
	offBaseMv = 1000
)

// MillivoltsFromRaw converts a raw ADC code to the sensor voltage in
// millivolts, compensating for the input divider.
func MillivoltsFromRaw(raw int) int {
	if raw < 0 {
		raw = 0
	}

	return raw * adcReferenceMv / adcMaxCode * attenuationRatio
}

// CalPoint maps a sensor voltage to a temperature in hundredths of a
// degree.
type CalPoint struct {
	Mv   int
	Temp int
}

// CalibrationTable is an immutable piecewise-linear calibration curve,
// strictly increasing in voltage.
type CalibrationTable []CalPoint

// Lookup interpolates the temperature for the given voltage, clamping to
// the table endpoints outside its range. Integer arithmetic throughout;
// division truncates toward zero.
func (t CalibrationTable) Lookup(mv int) int {
	if mv <= t[0].Mv {
		return t[0].Temp
	}
	last := len(t) - 1
	if mv >= t[last].Mv {
		return t[last].Temp
	}

	i := 0
	for ; i < last-1; i++ {
		if mv <= t[i+1].Mv {
			break
		}
	}

	return t.interpolate(i, mv)
}

// interpolate evaluates the segment between points i and i+1 at mv,
// without range checks. Also used for extrapolation below the first
// point.
func (t CalibrationTable) interpolate(i, mv int) int {
	v0, v1 := t[i].Mv, t[i+1].Mv
	t0, t1 := t[i].Temp, t[i+1].Temp

	return t0 + (t1-t0)*(mv-v0)/(v1-v0)
}

// dialTable calibrates the target-temperature dial. The dial outputs
// 0-5V but is not linear; these points were measured against the dial
// markings. Out-of-range voltages clamp.
var dialTable = CalibrationTable{
	{0, 10000},   // 0.0V = 100 degrees
	{800, 9500},  // 0.8V = 95
	{1700, 9000}, // 1.7V = 90
	{2600, 8000}, // 2.6V = 80
	{3700, 7000}, // 3.7V = 70
	{4500, 6000}, // 4.5V = 60
	{5000, 5000}, // 5.0V = 50
}

// thermistorTable calibrates the NTC junction voltage against water
// temperature. The circuit is 5V -> NTC -> junction -> 10K -> GND.
var thermistorTable = CalibrationTable{
	{1200, 2500},  // 1.2V = 25 degrees
	{1900, 5000},  // 1.9V = 50
	{2200, 7000},  // 2.2V = 70
	{3000, 9000},  // 3.0V = 90
	{3300, 10000}, // 3.3V = 100
}

// TargetFromRaw translates a (filtered) raw dial sample to a target
// temperature in hundredths of a degree.
func TargetFromRaw(raw int) int16 {
	return int16(dialTable.Lookup(MillivoltsFromRaw(raw)))
}

// CurrentFromRaw translates a (filtered) raw thermistor sample to the
// current water temperature. Returns TempInvalid when the kettle is off
// its base (junction voltage collapsed) or the raw code is implausibly
// low (disconnected input floating low).
func CurrentFromRaw(raw int) int16 {
	if raw < minPlausibleRaw {
		return profile.TempInvalid
	}

	return CurrentFromMillivolts(MillivoltsFromRaw(raw))
}

// CurrentFromMillivolts is the voltage-domain half of CurrentFromRaw.
// Between the off-base threshold and the first calibration point the
// curve is extrapolated from the first segment, floored at zero; this
// differs deliberately from the dial's clamp-only policy so that
// near-freezing water still reads plausibly.
func CurrentFromMillivolts(mv int) int16 {
	if mv < offBaseMv {
		return profile.TempInvalid
	}

	if mv < thermistorTable[0].Mv {
		temp := thermistorTable.interpolate(0, mv)
		if temp < 0 {
			temp = 0
		}

		return int16(temp)
	}

	return int16(thermistorTable.Lookup(mv))
}

// OffBase reports whether a raw thermistor sample indicates the kettle
// has been lifted from its base. Checked on the unfiltered sample so the
// filter can be reset before it absorbs the collapse.
func OffBase(raw int) bool {
	return raw < minPlausibleRaw || MillivoltsFromRaw(raw) < offBaseMv
}
