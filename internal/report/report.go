// Package report defines the statistics rows a replica emits and the sinks
// that receive them.
package report

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/talgya/contagion/internal/agents"
)

// Header is the column header of the report stream.
const Header = "#,iter,S,I,R,V,D,TI,TID"

// Statistics is a snapshot of one replica: state counts plus the two
// cumulative counters the simulation tracks.
type Statistics struct {
	agents.Census
	TotalInfections int `json:"total_infections"`
	InfectionDeaths int `json:"infection_deaths"`
}

// Row is one report event.
type Row struct {
	Replica   int `json:"replica"`
	Iteration int `json:"iteration"`
	Statistics
}

// AppendCSV appends the row in report-stream format, newline included.
func (r Row) AppendCSV(b []byte) []byte {
	fields := [...]int{
		r.Replica, r.Iteration,
		r.Susceptible, r.Infectious, r.Recovered, r.Vaccinated, r.Dead,
		r.TotalInfections, r.InfectionDeaths,
	}
	for i, v := range fields {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(v), 10)
	}
	return append(b, '\n')
}

// Sink receives report events. Implementations must be safe for concurrent
// use because all replicas share one sink.
type Sink interface {
	Header() error
	Write(Row) error
}

// Snapshotter is implemented by sinks that also record agent dumps.
type Snapshotter interface {
	Snapshot(replica, iteration int, pop agents.Population) error
}

// CSVWriter writes the report stream. Each row reaches the underlying writer
// in a single Write call so concurrent replicas never interleave within a row.
type CSVWriter struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

// NewCSVWriter creates a report stream over w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// Header writes the column header line.
func (c *CSVWriter) Header() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, Header+"\n")
	return err
}

// Write writes one data row.
func (c *CSVWriter) Write(r Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = r.AppendCSV(c.buf[:0])
	_, err := c.w.Write(c.buf)
	return err
}

// ParseRows reads a report stream back into rows, skipping the header.
func ParseRows(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		parts := bytes.Split(line, []byte{','})
		if len(parts) != 9 {
			return nil, errors.New("report row: want 9 fields, got " + strconv.Itoa(len(parts)))
		}
		var v [9]int
		for i, p := range parts {
			n, err := strconv.Atoi(string(p))
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		rows = append(rows, Row{
			Replica:   v[0],
			Iteration: v[1],
			Statistics: Statistics{
				Census: agents.Census{
					Susceptible: v[2],
					Infectious:  v[3],
					Recovered:   v[4],
					Vaccinated:  v[5],
					Dead:        v[6],
				},
				TotalInfections: v[7],
				InfectionDeaths: v[8],
			},
		})
	}
	return rows, nil
}

// Tee fans report events out to several sinks in order. The first error
// stops the fan-out.
type Tee []Sink

// Header forwards to every sink.
func (t Tee) Header() error {
	for _, s := range t {
		if err := s.Header(); err != nil {
			return err
		}
	}
	return nil
}

// Write forwards to every sink.
func (t Tee) Write(r Row) error {
	for _, s := range t {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot forwards to every sink that records agent dumps.
func (t Tee) Snapshot(replica, iteration int, pop agents.Population) error {
	for _, s := range t {
		if snap, ok := s.(Snapshotter); ok {
			if err := snap.Snapshot(replica, iteration, pop); err != nil {
				return err
			}
		}
	}
	return nil
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Header() error   { return nil }
func (discard) Write(Row) error { return nil }
