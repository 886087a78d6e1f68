package stats

import (
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		nodes []int
		mean  float64
		stdev float64
		min   float64
		max   float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638, 10, 23},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891, 10, 124},
		{[]int{1}, 1, 0, 1, 1},
		{[]int{}, 0, 0, 0, 0},
		{[]int{1, 1}, 1, 0, 1, 1},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, n := range c.nodes {
			s.Push(float64(n))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
		is.True(FuzzyEqual(s.Min(), c.min))
		is.True(FuzzyEqual(s.Max(), c.max))
	}
}

func TestStandardError(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	for _, n := range []int{10, 12, 23, 23, 16, 23, 21, 16} {
		s.Push(float64(n))
	}
	// stdev / sqrt(n)
	is.True(FuzzyEqual(s.StandardError(), 5.2372293656638/2.8284271247461))
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(95), 1.959963984540054))
	is.True(FuzzyEqual(ZVal(99), 2.5758293035489004))
}
