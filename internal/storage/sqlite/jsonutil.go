package sqlite

import "encoding/json"

func encodeJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func decodeStringMap(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	m := map[string]string{}
	_ = json.Unmarshal([]byte(raw), &m)
	if m == nil {
		m = map[string]string{}
	}
	return m
}

func decodeStringSlice(raw string) []string {
	if raw == "" {
		return nil
	}
	var s []string
	_ = json.Unmarshal([]byte(raw), &s)
	return s
}
