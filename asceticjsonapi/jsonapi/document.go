package jsonapi

import (
	"encoding/json"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/query"
)

// Result is the primary data of a document: either one record (possibly
// absent) for single-finds or a sequence of records for list-finds.
type Result struct {
	records []query.Record
	single  bool
}

// One wraps a single-find result; a nil record means nothing was found.
func One(record query.Record) Result {
	if record == nil {
		return Result{single: true}
	}
	return Result{records: []query.Record{record}, single: true}
}

func Many(records []query.Record) Result {
	if records == nil {
		records = []query.Record{}
	}
	return Result{records: records}
}

func (r Result) IsSingle() bool {
	return r.single
}

func (r Result) Empty() bool {
	return len(r.records) == 0
}

// Records returns the underlying records; a single result yields zero or one.
func (r Result) Records() []query.Record {
	return r.records
}

// Record returns the single record, or nil.
func (r Result) Record() query.Record {
	if len(r.records) == 0 {
		return nil
	}
	return r.records[0]
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.single {
		return json.Marshal(r.Record())
	}
	return json.Marshal(r.records)
}

// Document is the answer to a find request. Included is keyed by the target
// resource type of each requested relationship and is nil when nothing was included.
type Document struct {
	Data     Result                    `json:"data"`
	Included map[string][]query.Record `json:"included,omitempty"`
}
