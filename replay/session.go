// Package replay plays recorded advertisements back as a bluetooth.Platform.
// Sessions are YAML files; a Recorder writes them from a live scan.
package replay

import (
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/adv"
	"github.com/emes30/bluetooth/uuid"
)

var logger = log.New("replay")

// Adapter describes the adapter a session was recorded on.
type Adapter struct {
	ID      string `yaml:"id"`
	Address string `yaml:"address,omitempty"`
	Name    string `yaml:"name,omitempty"`
}

// Record is one recorded advertisement. Binary payloads are hex strings.
type Record struct {
	Offset       time.Duration     `yaml:"offset"`
	Addr         string            `yaml:"addr"`
	RSSI         int               `yaml:"rssi"`
	Name         string            `yaml:"name,omitempty"`
	Manufacturer map[uint16]string `yaml:"manufacturer_data,omitempty"`
	ServiceData  map[string]string `yaml:"service_data,omitempty"`
	ServiceUUIDs []string          `yaml:"service_uuids,omitempty"`
	TxPower      *int              `yaml:"tx_power,omitempty"`
	Connectable  bool              `yaml:"connectable,omitempty"`
}

// Session is a recorded scan. Records are played in order, each at its
// offset from the start of the playback.
type Session struct {
	Adapter Adapter  `yaml:"adapter"`
	Loop    bool     `yaml:"loop,omitempty"`
	Records []Record `yaml:"records"`
}

// Decode reads a session and checks every record.
func Decode(r io.Reader) (*Session, error) {
	var s Session
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode session")
	}
	if s.Loop && s.Duration() == 0 {
		return nil, errors.New("decode session: loop needs records spread over time")
	}
	if s.Adapter.ID == "" {
		s.Adapter.ID = "replay0"
	}
	var last time.Duration
	for i, rec := range s.Records {
		if rec.Offset < last {
			return nil, errors.Errorf("record %d: offset %s before %s", i, rec.Offset, last)
		}
		last = rec.Offset
		if _, err := rec.Event(); err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
	}
	return &s, nil
}

// Load reads a session file.
func Load(name string) (*Session, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open session")
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	logger.Info("session loaded", "file", name, "records", len(s.Records))
	return s, nil
}

// Encode writes s as YAML.
func (s *Session) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(err, "encode session")
	}
	return errors.Wrap(enc.Close(), "encode session")
}

// Duration returns the offset of the last record.
func (s *Session) Duration() time.Duration {
	if len(s.Records) == 0 {
		return 0
	}
	return s.Records[len(s.Records)-1].Offset
}

// Event rebuilds the platform event of the record. The advertising data
// is re-encoded from the decoded fields.
func (r Record) Event() (bluetooth.Event, error) {
	if r.Addr == "" {
		return bluetooth.Event{}, errors.New("missing addr")
	}
	var p adv.Packet
	if r.Name != "" {
		p = p.AppendCompleteName(r.Name)
	}
	if r.TxPower != nil {
		p = p.AppendTxPower(*r.TxPower)
	}
	for _, s := range r.ServiceUUIDs {
		u, err := uuid.Parse(s)
		if err != nil {
			return bluetooth.Event{}, errors.Wrapf(err, "service uuid %q", s)
		}
		p = p.AppendAllUUID(u)
	}
	for id, h := range r.Manufacturer {
		b, err := hex.DecodeString(h)
		if err != nil {
			return bluetooth.Event{}, errors.Wrapf(err, "manufacturer data %d", id)
		}
		p = p.AppendManufacturerData(id, b)
	}
	for s, h := range r.ServiceData {
		u, err := uuid.Parse(s)
		if err != nil {
			return bluetooth.Event{}, errors.Wrapf(err, "service data uuid %q", s)
		}
		b, err := hex.DecodeString(h)
		if err != nil {
			return bluetooth.Event{}, errors.Wrapf(err, "service data %s", s)
		}
		p = p.AppendServiceData(u, b)
	}
	return bluetooth.Event{
		Addr:        r.Addr,
		RSSI:        r.RSSI,
		Data:        p,
		Connectable: r.Connectable,
	}, nil
}

// shortUUID turns a canonical UUID on the Bluetooth base back into its
// 16 or 32-bit form.
func shortUUID(s string) string {
	const base = "-0000-1000-8000-00805f9b34fb"
	if !strings.HasSuffix(s, base) || len(s) != 36 {
		return s
	}
	if strings.HasPrefix(s, "0000") {
		return s[4:8]
	}
	return s[:8]
}
