package types

// Metadata is the part of the runtime metadata the client needs: pallets by
// index and each pallet's error variants by position.
type Metadata struct {
	SpecVersion uint32
	Pallets     map[uint8]*PalletMetadata
}

type PalletMetadata struct {
	Index  uint8
	Name   string
	Errors map[uint8]ErrorVariant
}

type ErrorVariant struct {
	Index uint8
	Name  string
	Docs  []string
}

func NewMetadata() *Metadata {
	return &Metadata{Pallets: make(map[uint8]*PalletMetadata)}
}

// AddPallet registers a pallet; an existing entry at the same index is
// replaced.
func (m *Metadata) AddPallet(index uint8, name string, errs ...ErrorVariant) *PalletMetadata {
	p := &PalletMetadata{Index: index, Name: name, Errors: make(map[uint8]ErrorVariant, len(errs))}
	for _, e := range errs {
		p.Errors[e.Index] = e
	}
	m.Pallets[index] = p
	return p
}

func (m *Metadata) Pallet(index uint8) (*PalletMetadata, bool) {
	if m == nil || m.Pallets == nil {
		return nil, false
	}
	p, ok := m.Pallets[index]
	return p, ok && p != nil
}

func (m *Metadata) PalletByName(name string) (*PalletMetadata, bool) {
	if m == nil {
		return nil, false
	}
	for _, p := range m.Pallets {
		if p != nil && p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (p *PalletMetadata) Error(index uint8) (ErrorVariant, bool) {
	if p == nil || p.Errors == nil {
		return ErrorVariant{}, false
	}
	v, ok := p.Errors[index]
	return v, ok
}

// ErrorByName is the reverse lookup used to build synthetic errors in tests
// and in the CLI.
func (p *PalletMetadata) ErrorByName(name string) (ErrorVariant, bool) {
	if p == nil {
		return ErrorVariant{}, false
	}
	for _, v := range p.Errors {
		if v.Name == name {
			return v, true
		}
	}
	return ErrorVariant{}, false
}
