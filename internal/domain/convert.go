package domain

const kgToLb = 2.2046226218

// Weight units accepted at the edges. The core always works in pounds.
const (
	UnitKG = "kg"
	UnitLB = "lb"
)

// ValidUnit reports whether u is a supported weight unit.
func ValidUnit(u string) bool {
	return u == UnitKG || u == UnitLB
}

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == UnitKG && to == UnitLB {
		return v * kgToLb
	}
	if from == UnitLB && to == UnitKG {
		return v / kgToLb
	}
	return v
}

// ToPounds converts v from unit into pounds.
func ToPounds(v float64, unit string) float64 {
	return ConvertWeight(v, unit, UnitLB)
}
