package rangefinder

// SpeedOfSound returns the speed of sound in meters per second at the given
// ambient temperature in deci-degrees Celsius.
func SpeedOfSound(ambientTemp int) float64 {
	return 331.4 + 0.6*float64(ambientTemp)/10.0
}

// TimeToDistance converts a one-way-plus-return echo duration in
// microseconds into a distance in millimeters. The round trip is halved.
func TimeToDistance(ambientTemp int, timeUs int64) int {
	return int(float64(timeUs) / 1000.0 / 1000.0 * (SpeedOfSound(ambientTemp) / 2) * 1000.0)
}

// DistanceToTime is the inverse of TimeToDistance: the round-trip echo
// duration in microseconds for a target at distanceMm. It sizes the echo
// wait window.
func DistanceToTime(ambientTemp int, distanceMm int) int64 {
	return int64(float64(distanceMm) / 1000.0 / (SpeedOfSound(ambientTemp) / 2) * 1000.0 * 1000.0)
}
