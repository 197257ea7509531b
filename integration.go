package bluetooth

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/emes30/bluetooth/uuid"
)

//go:embed integrations.yaml
var defaultIntegrations []byte

// IntegrationMatchSpec is one alternative under which an integration wants
// to be offered a device. Every criterion set must match.
type IntegrationMatchSpec struct {
	Domain                string  `yaml:"domain"`
	ManufacturerID        *uint16 `yaml:"manufacturer_id,omitempty"`
	ManufacturerDataStart []uint8 `yaml:"manufacturer_data_start,omitempty"`
	ServiceUUID           string  `yaml:"service_uuid,omitempty"`
	ServiceDataUUID       string  `yaml:"service_data_uuid,omitempty"`
	LocalName             string  `yaml:"local_name,omitempty"`
	Connectable           *bool   `yaml:"connectable,omitempty"`
}

type integrationsFile struct {
	Integrations []IntegrationMatchSpec `yaml:"integrations"`
}

// LoadIntegrationSpecs decodes a YAML document with an "integrations" list.
func LoadIntegrationSpecs(r io.Reader) ([]IntegrationMatchSpec, error) {
	var f integrationsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Wrapf(ErrInvalidConfig, "parse integrations: %v", err)
	}
	return f.Integrations, nil
}

// LoadIntegrationSpecsFile reads integration specs from a YAML file.
func LoadIntegrationSpecsFile(name string) ([]IntegrationMatchSpec, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open integrations")
	}
	defer f.Close()
	return LoadIntegrationSpecs(f)
}

// DefaultIntegrationSpecs returns the built in integration specs.
func DefaultIntegrationSpecs() []IntegrationMatchSpec {
	specs, err := LoadIntegrationSpecs(bytes.NewReader(defaultIntegrations))
	if err != nil {
		panic(err)
	}
	return specs
}

type compiledSpec struct {
	domain      string
	mfr         uint16
	hasMfr      bool
	mfrStart    []byte
	svc         string
	svcData     string
	name        string
	glob        bool
	connectable bool
}

func compileSpec(s IntegrationMatchSpec) (*compiledSpec, error) {
	if s.Domain == "" {
		return nil, errors.Wrap(ErrInvalidConfig, "integration spec without domain")
	}
	c := &compiledSpec{domain: s.Domain, name: s.LocalName}
	if s.ManufacturerID != nil {
		c.mfr, c.hasMfr = *s.ManufacturerID, true
	}
	if len(s.ManufacturerDataStart) > 0 {
		if !c.hasMfr {
			return nil, errors.Wrapf(ErrInvalidConfig, "%s: manufacturer_data_start without manufacturer_id", s.Domain)
		}
		c.mfrStart = append([]byte(nil), s.ManufacturerDataStart...)
	}
	var err error
	if s.ServiceUUID != "" {
		if c.svc, err = uuid.Normalize(s.ServiceUUID); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "%s: service_uuid %q: %v", s.Domain, s.ServiceUUID, err)
		}
	}
	if s.ServiceDataUUID != "" {
		if c.svcData, err = uuid.Normalize(s.ServiceDataUUID); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "%s: service_data_uuid %q: %v", s.Domain, s.ServiceDataUUID, err)
		}
	}
	if c.name != "" {
		c.glob = strings.ContainsAny(c.name, "*?[")
		if c.glob {
			if _, err := path.Match(c.name, ""); err != nil {
				return nil, errors.Wrapf(ErrInvalidConfig, "%s: local_name %q: %v", s.Domain, c.name, err)
			}
		}
	}
	if s.Connectable != nil {
		c.connectable = *s.Connectable
	}
	if !c.hasMfr && c.svc == "" && c.svcData == "" && c.name == "" {
		return nil, errors.Wrapf(ErrInvalidConfig, "%s: integration spec without criteria", s.Domain)
	}
	return c, nil
}

func (c *compiledSpec) matches(a *Advertisement) bool {
	if c.connectable && !a.connectable {
		return false
	}
	if c.hasMfr {
		b, ok := a.mfr[c.mfr]
		if !ok || !bytes.HasPrefix(b, c.mfrStart) {
			return false
		}
	}
	if c.svc != "" && !a.hasServiceCanonical(c.svc) {
		return false
	}
	if c.svcData != "" && !a.hasServiceData(c.svcData) {
		return false
	}
	if c.name != "" {
		if a.name == "" {
			return false
		}
		if c.glob {
			if ok, _ := path.Match(c.name, a.name); !ok {
				return false
			}
		} else if !strings.HasPrefix(a.name, c.name) {
			return false
		}
	}
	return true
}

// IntegrationMatcher maps advertisements to the integrations interested
// in them. It's read only once built and safe for concurrent use.
type IntegrationMatcher struct {
	byMfr     map[uint16][]*compiledSpec
	bySvc     map[string][]*compiledSpec
	bySvcData map[string][]*compiledSpec
	byName    []*compiledSpec
	n         int
}

// NewIntegrationMatcher indexes specs by manufacturer identifier, service
// UUID and service data UUID. Specs with a local name only are scanned.
func NewIntegrationMatcher(specs []IntegrationMatchSpec) (*IntegrationMatcher, error) {
	m := &IntegrationMatcher{
		byMfr:     make(map[uint16][]*compiledSpec),
		bySvc:     make(map[string][]*compiledSpec),
		bySvcData: make(map[string][]*compiledSpec),
	}
	for _, s := range specs {
		c, err := compileSpec(s)
		if err != nil {
			return nil, err
		}
		switch {
		case c.hasMfr:
			m.byMfr[c.mfr] = append(m.byMfr[c.mfr], c)
		case c.svc != "":
			m.bySvc[c.svc] = append(m.bySvc[c.svc], c)
		case c.svcData != "":
			m.bySvcData[c.svcData] = append(m.bySvcData[c.svcData], c)
		default:
			m.byName = append(m.byName, c)
		}
		m.n++
	}
	return m, nil
}

// Len returns the number of specs.
func (m *IntegrationMatcher) Len() int { return m.n }

// Match returns the sorted domains interested in a.
func (m *IntegrationMatcher) Match(a *Advertisement) []string {
	set := make(map[string]struct{})
	try := func(cs []*compiledSpec) {
		for _, c := range cs {
			if _, ok := set[c.domain]; ok {
				continue
			}
			if c.matches(a) {
				set[c.domain] = struct{}{}
			}
		}
	}
	for id := range a.mfr {
		try(m.byMfr[id])
	}
	for u := range a.svcUUIDs {
		try(m.bySvc[u])
	}
	for u := range a.svcData {
		try(m.bySvcData[u])
	}
	if a.name != "" {
		try(m.byName)
	}

	if len(set) == 0 {
		return nil
	}
	domains := make([]string, 0, len(set))
	for d := range set {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
