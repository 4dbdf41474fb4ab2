package agents

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/contagion/internal/entropy"
)

func TestStateCodes(t *testing.T) {
	tests := []struct {
		state State
		code  string
	}{
		{Susceptible, "S"},
		{Infectious, "I"},
		{Recovered, "R"},
		{Vaccinated, "V"},
		{Dead, "D"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			require.True(t, tt.state.Valid())
			require.Equal(t, tt.code, tt.state.String())

			got, err := ParseState(tt.code)
			require.NoError(t, err)
			require.Equal(t, tt.state, got)
		})
	}

	require.False(t, State(NumStates).Valid())
	require.Equal(t, "?", State(9).String())

	_, err := ParseState("X")
	require.Error(t, err)
}

func TestNewPopulation(t *testing.T) {
	p := NewPopulation(10)
	require.Len(t, p, 10)
	for i, a := range p {
		require.Equal(t, AgentID(i), a.ID)
		require.Equal(t, Susceptible, a.State)
	}

	require.Empty(t, NewPopulation(-3))
}

func TestSpawnContinuesIDs(t *testing.T) {
	p := NewPopulation(3)
	p[1].State = Dead
	p.Spawn(4)
	require.Len(t, p, 7)
	for i, a := range p {
		require.Equal(t, AgentID(i), a.ID)
	}
	require.Equal(t, Susceptible, p[6].State)

	p.Spawn(0)
	p.Spawn(-2)
	require.Len(t, p, 7)
}

func TestCensus(t *testing.T) {
	p := Population{
		{ID: 0, State: Susceptible},
		{ID: 1, State: Infectious},
		{ID: 2, State: Infectious},
		{ID: 3, State: Recovered},
		{ID: 4, State: Vaccinated},
		{ID: 5, State: Dead},
		{ID: 6, State: Dead},
	}

	c := p.Census()
	require.Equal(t, Census{Susceptible: 1, Infectious: 2, Recovered: 1, Vaccinated: 1, Dead: 2}, c)
	require.Equal(t, 7, c.Total())
	require.Equal(t, 5, c.Alive())

	require.Equal(t, 2, p.Count(Dead))
	require.Equal(t, 5, p.CountNot(Dead))
}

func TestIndices(t *testing.T) {
	p := Population{
		{ID: 0, State: Infectious},
		{ID: 1, State: Susceptible},
		{ID: 2, State: Dead},
		{ID: 3, State: Susceptible},
		{ID: 4, State: Susceptible},
	}

	tests := []struct {
		name string
		max  int
		want []int
	}{
		{"zero", 0, nil},
		{"stops at max", 2, []int{1, 3}},
		{"exhausts population", 10, []int{1, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Indices(Susceptible, tt.max)
			if tt.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestShuffleAndSort(t *testing.T) {
	p := NewPopulation(50)
	p.Shuffle(entropy.NewLCG(5).Shuffle)

	moved := false
	for i, a := range p {
		if a.ID != AgentID(i) {
			moved = true
			break
		}
	}
	require.True(t, moved, "shuffle left population in identity order")

	p.SortByID()
	for i, a := range p {
		require.Equal(t, AgentID(i), a.ID)
	}
}
