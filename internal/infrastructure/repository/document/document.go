// Package document translates domain entities to and from the flat
// field maps stored in the document backends. Every writer builds a map
// holding only the fields its pipeline stage owns, so merge-upserts never
// clobber another stage's data; readers rebuild entities from whatever mix
// of native and JSON-decoded values the backend hands back.
package document

import "time"

// Doc is one stored document's field map.
type Doc = map[string]any

func getString(d Doc, key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// getInt tolerates the numeric types the backends produce: Firestore
// returns int64, JSON decoding returns float64.
func getInt(d Doc, key string) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func getIntPtr(d Doc, key string) *int {
	if _, present := d[key]; !present {
		return nil
	}
	switch v := d[key].(type) {
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	case float64:
		n := int(v)
		return &n
	}
	return nil
}

func getBool(d Doc, key string) bool {
	if v, ok := d[key].(bool); ok {
		return v
	}
	return false
}

// getTime accepts native time values and their RFC 3339 JSON rendering.
func getTime(d Doc, key string) time.Time {
	switch v := d[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func getStringSlice(d Doc, key string) []string {
	switch v := d[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func getDoc(d Doc, key string) Doc {
	if v, ok := d[key].(map[string]any); ok {
		return v
	}
	return nil
}

func getDocSlice(d Doc, key string) []Doc {
	v, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Doc, 0, len(v))
	for _, item := range v {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// putTime stores zero times as absent so staleness checks can treat the
// field as never written.
func putTime(d Doc, key string, t time.Time) {
	if t.IsZero() {
		return
	}
	d[key] = t.UTC()
}
