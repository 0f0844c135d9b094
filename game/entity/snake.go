package entity

import (
	"snake-term/game/types"
)

// Snake keeps its body twice: an ordered slice for head/tail work and a
// membership set for O(1) occupancy checks. Every mutation updates both.
//
// The slice is stored tail first, so the head is the last element.
type Snake struct {
	body     []types.Point
	occupied map[types.Point]struct{}
}

// NewSnake builds a snake from segments given head first.
func NewSnake(segments ...types.Point) *Snake {
	s := &Snake{
		body:     make([]types.Point, 0, len(segments)),
		occupied: make(map[types.Point]struct{}, len(segments)),
	}
	for i := len(segments) - 1; i >= 0; i-- {
		s.PushHead(segments[i])
	}
	return s
}

// Spawn returns a horizontal snake of the given length, head at head and
// the rest trailing to the left.
func Spawn(head types.Point, length int) *Snake {
	segments := make([]types.Point, length)
	for i := range segments {
		segments[i] = types.Point{Row: head.Row, Col: head.Col - i}
	}
	return NewSnake(segments...)
}

// PushHead adds p as the new head.
func (s *Snake) PushHead(p types.Point) {
	s.body = append(s.body, p)
	s.occupied[p] = struct{}{}
}

// PopTail removes and returns the tail segment.
func (s *Snake) PopTail() types.Point {
	tail := s.body[0]
	s.body = s.body[1:]
	delete(s.occupied, tail)
	return tail
}

func (s *Snake) Head() types.Point {
	return s.body[len(s.body)-1]
}

func (s *Snake) Tail() types.Point {
	return s.body[0]
}

func (s *Snake) Len() int {
	return len(s.body)
}

// Occupies reports whether any segment sits on p.
func (s *Snake) Occupies(p types.Point) bool {
	_, ok := s.occupied[p]
	return ok
}

// Body returns a head-first copy of the segments.
func (s *Snake) Body() []types.Point {
	out := make([]types.Point, len(s.body))
	for i, p := range s.body {
		out[len(s.body)-1-i] = p
	}
	return out
}
