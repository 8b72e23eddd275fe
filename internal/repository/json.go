package repository

import "encoding/json"

// jsonb column helpers. Postgres jsonb scans into []byte; empty and NULL
// both come back as an empty slice here and decode to the zero value.

func toJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func fromJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
