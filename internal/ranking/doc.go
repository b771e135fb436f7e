// Package ranking provides the feed scoring components with calibration
// support for the personalized news feed.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//
//	// Score one candidate
//	scorer := ranking.NewScorer(72*time.Hour, 0.5)
//	score := scorer.Score(article, profile, weights, true, time.Now())
//
// Sub-scores:
//
// All sub-score functions return values in the [0, 1] range and are
// composable. Personalization is the maximum matching interest score across
// the article's category, source, and author. Freshness decays linearly to
// zero at the horizon. Popularity is a saturated engagement rate. Serendipity
// is the inverse of the user's mean top-category affinity; it is excluded
// from the composite when the user's feed configuration disables it, with
// its weight redistributed proportionally across the other three.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of ranking weights via a
// JSON configuration file loaded at startup. This enables A/B testing and
// optimization without code changes (a restart is required to pick up new
// configuration). See configs/ranking.calibration.json for the defaults.
package ranking
