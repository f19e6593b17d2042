package digitomize

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Fallback field names per logical field, tried in order.
var (
	startFields = []string{"startTimeUnix", "startTime", "start_time"}
	hostFields  = []string{"platform", "host"}
	nameFields  = []string{"name", "title"}
	urlFields   = []string{"url", "link"}
)

// record is one raw contest entry with an unknown set of field names.
type record map[string]json.RawMessage

// findRecordList locates the contest list in a response body of arbitrary
// shape: a bare array, an object with a "contests" array, or an object
// whose first array-valued field (in sorted key order, for determinism)
// holds the list.
func findRecordList(body []byte) []record {
	if records := decodeRecords(body); records != nil {
		return records
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}

	if records := decodeRecords(obj["contests"]); records != nil {
		return records
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if records := decodeRecords(obj[k]); records != nil {
			return records
		}
	}

	return nil
}

// decodeRecords parses raw as an array of records. Anything else, a
// null field included, yields nil so the caller keeps searching.
func decodeRecords(raw json.RawMessage) []record {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil
	}

	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil
	}
	if records == nil {
		records = []record{}
	}
	return records
}

func (r record) firstString(fields []string) string {
	for _, f := range fields {
		raw, ok := r[f]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// firstUnix resolves a timestamp field that upstream serves sometimes as
// a JSON number and sometimes as a numeric string.
func (r record) firstUnix(fields []string) int64 {
	for _, f := range fields {
		raw, ok := r[f]
		if !ok {
			continue
		}

		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}

		var fl float64
		if err := json.Unmarshal(raw, &fl); err == nil {
			return int64(fl)
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}
