// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package grid holds the 2-D integer geometry the rover moves on.
package grid

import "fmt"

// Direction is one of the four moves relative to the grid axes.
type Direction string

const (
	Left     Direction = "left"
	Right    Direction = "right"
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// ScanOrder is the fixed order used whenever directions are enumerated.
// Tie breaking in direction selection depends on it.
var ScanOrder = [4]Direction{Left, Right, Forward, Backward}

// ParseDirection returns the Direction named by s.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Left, Right, Forward, Backward:
		return Direction(s), true
	default:
		return "", false
	}
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	_, ok := ParseDirection(string(d))
	return ok
}

// Point is a grid coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Step returns the neighbour of p in direction d.
// forward is +Y, backward is -Y, right is +X and left is -X.
// An invalid direction leaves p unchanged.
func (p Point) Step(d Direction) Point {
	switch d {
	case Forward:
		return Point{p.X, p.Y + 1}
	case Backward:
		return Point{p.X, p.Y - 1}
	case Right:
		return Point{p.X + 1, p.Y}
	case Left:
		return Point{p.X - 1, p.Y}
	default:
		return p
	}
}

// Manhattan returns |a.X-b.X| + |a.Y-b.Y|.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
