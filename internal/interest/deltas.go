package interest

import "github.com/newsreel/newsreel/internal/interaction"

// Score deltas applied per interaction type. Positive interactions nudge the
// score toward 1, negative ones toward 0. Unknown types map to 0 so ingestion
// stays lossless without affecting the profile.
var typeDeltas = map[interaction.Type]float64{
	interaction.TypeView:      0.02,
	interaction.TypeClick:     0.05,
	interaction.TypeSave:      0.08,
	interaction.TypeLike:      0.10,
	interaction.TypeComment:   0.12,
	interaction.TypeShare:     0.15,
	interaction.TypeFullRead:  0.15,
	interaction.TypeQuickExit: -0.10,
}

// Delta returns the interest score delta for an interaction. When the
// interaction carries a reading progress, the delta is scaled by it, so a
// half-read article contributes half the nominal delta.
func Delta(i *interaction.Interaction) float64 {
	d, ok := typeDeltas[i.Type]
	if !ok {
		return 0
	}
	if i.ReadingProgress != nil {
		d *= *i.ReadingProgress
	}
	return d
}
