// Agent dumps: one row per agent, sorted by identity.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/talgya/contagion/internal/agents"
)

// WriteAgents writes the id,state header and one row per agent in the order
// given. Callers sort by ID first.
func WriteAgents(w io.Writer, pop agents.Population) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("id,state\n"); err != nil {
		return err
	}
	var line []byte
	for _, a := range pop {
		line = strconv.AppendUint(line[:0], uint64(a.ID), 10)
		line = append(line, ',')
		line = append(line, a.State.String()...)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteAgentsFile replaces the file at path with the dump. The rows go to a
// temporary file in the same directory which is then renamed over path, so
// concurrent writers never interleave and the last rename wins.
func WriteAgentsFile(path string, pop agents.Population) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create agent dump: %w", err)
	}
	tmp := f.Name()

	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("chmod agent dump %s: %w", path, err)
	}
	if err := WriteAgents(f, pop); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write agent dump %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close agent dump %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace agent dump %s: %w", path, err)
	}
	return nil
}

// ReadAgents parses a dump written by WriteAgents.
func ReadAgents(r io.Reader) (agents.Population, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dump header: %w", err)
	}
	if header[0] != "id" || header[1] != "state" {
		return nil, fmt.Errorf("unexpected dump header %q", header)
	}

	var pop agents.Population
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dump row: %w", err)
		}
		id, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse agent id %q: %w", rec[0], err)
		}
		st, err := agents.ParseState(rec[1])
		if err != nil {
			return nil, err
		}
		pop = append(pop, agents.Agent{ID: agents.AgentID(id), State: st})
	}
	return pop, nil
}

// ReadAgentsFile parses the dump at path.
func ReadAgentsFile(path string) (agents.Population, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open agent dump: %w", err)
	}
	defer f.Close()
	return ReadAgents(f)
}
