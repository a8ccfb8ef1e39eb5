package mdp

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ReadTable reads a dense numeric transition table, one
// state,action,next_state,reward,probability row per line. Lines starting
// with # are ignored. States and actions are declared in order of first
// appearance.
func ReadTable(r io.Reader) (*Model[int, int], error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 5
	reader.TrimLeadingSpace = true

	states := make([]int, 0)
	actions := make([]int, 0)
	seenStates := make(map[int]bool)
	seenActions := make(map[int]bool)
	addState := func(s int) {
		if !seenStates[s] {
			seenStates[s] = true
			states = append(states, s)
		}
	}

	records := make([]Record[int, int], 0)
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidModel, err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %s", ErrInvalidModel, line, err)
		}
		addState(rec.State)
		addState(rec.Next)
		if !seenActions[rec.Action] {
			seenActions[rec.Action] = true
			actions = append(actions, rec.Action)
		}
		records = append(records, rec)
	}
	return NewModel(states, actions, records)
}

func parseRow(row []string) (Record[int, int], error) {
	var rec Record[int, int]
	ids := make([]int, 3)
	for i := 0; i < 3; i++ {
		id, err := parseID(row[i])
		if err != nil {
			return rec, err
		}
		ids[i] = id
	}
	reward, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return rec, fmt.Errorf("reward: %s", err)
	}
	prob, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return rec, fmt.Errorf("probability: %s", err)
	}
	rec.State = ids[0]
	rec.Action = ids[1]
	rec.Next = ids[2]
	rec.Reward = reward
	rec.Probability = prob
	return rec, nil
}

// parseID accepts integer identifiers written either as 3 or 3.0
func parseID(field string) (int, error) {
	if id, err := strconv.Atoi(field); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("identifier %q is not numeric", field)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("identifier %q is not an integer", field)
	}
	return int(f), nil
}

// WriteTable writes the model in the format read by ReadTable.
func WriteTable(w io.Writer, m *Model[int, int]) error {
	writer := csv.NewWriter(w)
	for _, r := range m.Records() {
		err := writer.Write([]string{
			strconv.Itoa(r.State),
			strconv.Itoa(r.Action),
			strconv.Itoa(r.Next),
			strconv.FormatFloat(r.Reward, 'g', -1, 64),
			strconv.FormatFloat(r.Probability, 'g', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
