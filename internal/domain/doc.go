// Package domain models the climate matching problem: a fixed catalogue of
// city climate observations, a global lattice of interpolated samples, and a
// scoring function that rates any sample against user-chosen ranges.
//
// # Units
//
// Temperatures are degrees Fahrenheit, sunlight is hours per day, and
// cloudiness is cloudy days per month. Coordinates are WGS-84 degrees.
//
// # Interpolation
//
// Grid samples use inverse-distance weighting over the nearest few cities:
//
//	weight(city) = 1 / max(haversine(point, city), 0.1) ^ power
//	metric       = Σ(metric·weight) / Σ(weight)
//
// Distances are great-circle kilometres on a sphere of radius 6371 km. The
// 0.1 km floor keeps the weight finite when a lattice node sits on a city.
// Temperatures and cloudy days round to integers, sunlight to 0.1 hours.
//
// # Scoring
//
// A sample scores 0 when any metric falls outside its range. Otherwise each
// dimension contributes 1 − |value − midpoint| / (width / 2), weighted by
// 1 / max(width, floor) so that tightly constrained dimensions dominate:
//
//	High / low / overall temperature: floor 5
//	Sunlight:                          floor 1
//	Cloudy days:                       floor 2
//
// A zero-width range contributes full closeness because any value that
// passed the gate equals the range bound.
//
// # Regions
//
// Map cells are sized by zoom level (5°, 2.5°, 1°, 0.5°) and take their data
// from the nearest lattice node, measured in plain lat/lon degrees.
package domain
