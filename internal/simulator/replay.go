package simulator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
)

// ReplayKey names an innings loaded from a bare delivery array.
var ReplayKey = model.InningsKey{MatchID: "replay", InningsNo: 1}

// LoadInnings reads path, which holds either a JSON array of deliveries or
// the array of innings written by SaveInnings.
func LoadInnings(path string) ([]Innings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array: %w", path, err)
	}
	if len(entries) > 0 {
		if _, ok := entries[0]["deliveries"]; ok {
			var out []Innings
			if err := decodeStrict(data, &out); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return out, nil
		}
	}

	var deliveries []model.Delivery
	if err := decodeStrict(data, &deliveries); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []Innings{{Key: ReplayKey, Deliveries: deliveries}}, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Replay scores in through a local innings, applying the same validation
// the server does. Rejected deliveries are reported and left out.
func Replay(in Innings, opts ...innings.Option) (*innings.Innings, []string) {
	inn := innings.New(in.Key, opts...)
	_ = inn.Start()

	var problems []string
	for i, d := range in.Deliveries {
		d = d.Normalize()
		if err := d.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("delivery %d (%s): %v", i+1, d.Position(), err))
			continue
		}
		if _, err := inn.Append(d); err != nil {
			problems = append(problems, fmt.Sprintf("delivery %d (%s): %v", i+1, d.Position(), err))
		}
	}
	_ = inn.End()
	return inn, problems
}
