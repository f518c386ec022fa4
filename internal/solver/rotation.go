package solver

import "github.com/noah-isme/sma-timetable-api/internal/models"

// Rotations derives up to n weekly variants from a validated base timetable
// by cyclically shifting day indices. A shift is a bijection on slots, so
// per-class and per-teacher weekly totals and per-day load multisets carry
// over; every variant is still re-verified against the full hard-constraint
// set and any variant that fails is discarded rather than returned.
//
// The first variant is the base week itself (shift zero).
func Rotations(
	config models.SchoolConfig,
	teachers []models.Teacher,
	classes []models.Class,
	base models.Timetable,
	n int,
) []models.Timetable {
	if n <= 0 || len(base) == 0 || len(config.Days) == 0 {
		return nil
	}

	variants := make([]models.Timetable, 0, n)
	for k := 0; k < n; k++ {
		variant := shiftDays(base, k%len(config.Days), len(config.Days))
		if len(Verify(config, teachers, classes, variant)) > 0 {
			continue
		}
		variants = append(variants, variant)
	}
	return variants
}

func shiftDays(tt models.Timetable, shift, days int) models.Timetable {
	if shift == 0 {
		return tt.Clone()
	}
	out := make(models.Timetable, len(tt))
	for key, val := range tt {
		shifted := key
		shifted.Day = (key.Day + shift) % days
		out[shifted] = val
	}
	return out
}
