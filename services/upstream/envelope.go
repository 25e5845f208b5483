package upstream

import "medialens/models"

// Records digs the actual record list out of a decoded response body,
// tolerating the envelopes the supported backends use: a bare array, a list
// nested under any of the given keys at any depth ({data:[...]},
// {response:{data:{data:[...]}}}, {MediaContainer:{Metadata:[...]}}), or an
// object-of-records. Returns nil when nothing list-shaped is found.
func Records(v any, keys ...string) []models.RawRecord {
	switch t := v.(type) {
	case []models.RawRecord:
		return t
	case []any:
		return toRecords(t)
	case map[string]any:
		for _, key := range keys {
			inner, ok := t[key]
			if !ok {
				continue
			}
			if recs := Records(inner, keys...); recs != nil {
				return recs
			}
		}
		return objectOfRecords(t)
	default:
		return nil
	}
}

func toRecords(list []any) []models.RawRecord {
	recs := make([]models.RawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			recs = append(recs, m)
		}
	}
	return recs
}

// objectOfRecords treats a map whose values are all objects as a keyed record
// collection. Maps with scalar values are envelopes we failed to unwrap, not
// record sets.
func objectOfRecords(m map[string]any) []models.RawRecord {
	if len(m) == 0 {
		return nil
	}
	recs := make([]models.RawRecord, 0, len(m))
	for _, v := range m {
		inner, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		recs = append(recs, inner)
	}
	return recs
}
