package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceSeries_AppendAndValues(t *testing.T) {
	s := NewPriceSeries()
	s.Append(1)
	s.Append(2)
	s.Append(3)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{1, 2, 3}, s.Values())
}

func TestPriceSeries_EvictsOldestAtCapacity(t *testing.T) {
	s := NewPriceSeries()
	for i := 0; i < historyCap+5; i++ {
		s.Append(float64(i))
	}

	assert.Equal(t, historyCap, s.Len())
	values := s.Values()
	assert.Equal(t, 5.0, values[0])
	assert.Equal(t, float64(historyCap+4), values[len(values)-1])
}

func TestPriceSeries_ValuesIsACopy(t *testing.T) {
	s := NewPriceSeries()
	s.Append(10)

	values := s.Values()
	values[0] = 99

	assert.Equal(t, []float64{10}, s.Values())
}
