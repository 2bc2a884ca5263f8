// Package algorithm defines the peak-detection strategy contract and the
// registry of built-in strategies.
//
// A Strategy maps an ordered run of XY points to the ascending indices of
// the points it considers peaks. Strategies are re-invocable and keep no
// state between calls; any window they need is rebuilt from the points they
// are given. Strategies that can be driven incrementally advertise how much
// context they look at through Windowed, which lets the stream runner keep a
// bounded buffer.
//
// Built-in strategies live in a Registry under the "algorithms/" namespace
// and are created from Params derived from detector settings:
//
//	s, err := algorithm.Resolve("distance", algorithm.Params{MinPeakDistance: 5})
//
// External strategies are plain values:
//
//	everyPoint := algorithm.StrategyFunc(func(pts []algorithm.Point) ([]int, error) { ... })
package algorithm
