package replay

import (
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/emes30/bluetooth"
)

// Recorder collects advertisements into a Session. Record has the
// signature of a bluetooth.Callback.
type Recorder struct {
	mu      sync.Mutex
	adapter Adapter
	start   time.Time
	records []Record
}

// NewRecorder returns a recorder for a scan on a.
func NewRecorder(a bluetooth.Adapter) *Recorder {
	return &Recorder{adapter: Adapter{ID: a.ID, Address: a.Address, Name: a.Name}}
}

// Record appends a. Offsets are taken from the advertisement times,
// relative to the first one recorded; earlier times are clamped to zero.
func (r *Recorder) Record(a *bluetooth.Advertisement, _ bluetooth.ChangeKind) {
	rec := Record{
		Addr:        a.Address(),
		RSSI:        a.RSSI(),
		Name:        a.LocalName(),
		Connectable: a.Connectable(),
	}
	if pwr, ok := a.TxPower(); ok {
		rec.TxPower = &pwr
	}
	if m := a.ManufacturerData(); len(m) > 0 {
		rec.Manufacturer = make(map[uint16]string, len(m))
		for id, b := range m {
			rec.Manufacturer[id] = hex.EncodeToString(b)
		}
	}
	if sd := a.ServiceData(); len(sd) > 0 {
		rec.ServiceData = make(map[string]string, len(sd))
		for u, b := range sd {
			rec.ServiceData[shortUUID(u)] = hex.EncodeToString(b)
		}
	}
	for _, u := range a.ServiceUUIDs() {
		rec.ServiceUUIDs = append(rec.ServiceUUIDs, shortUUID(u))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.start.IsZero() {
		r.start = a.Time()
	}
	if off := a.Time().Sub(r.start); off > 0 {
		rec.Offset = off
	}
	r.records = append(r.records, rec)
}

// Len returns the number of records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Session returns the records so far, ordered by offset.
func (r *Recorder) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{Adapter: r.adapter, Records: append([]Record(nil), r.records...)}
	sort.SliceStable(s.Records, func(i, j int) bool { return s.Records[i].Offset < s.Records[j].Offset })
	return s
}
