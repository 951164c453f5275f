// Package layout holds the fixed-width CNAB record layouts, one per variant.
// Positions are 1-based and inclusive, as the banks publish them.
//
// The Default registry is built once at package init and never mutated, so
// it can be shared by concurrent builds and parses without locking.
package layout

import (
	"fmt"
	"sort"

	"github.com/folhapay/remittance/internal/domain"
)

type Kind int

const (
	Alpha   Kind = iota // left-justified, space-filled
	Numeric             // right-justified, zero-filled digits only
	Money               // zero-filled minor units, no decimal separator
	Date                // ddmmyyyy, zeros when absent
	Time                // hhmmss
	Fixed               // literal constant
	Blank               // must be spaces
)

func (k Kind) String() string {
	switch k {
	case Alpha:
		return "alpha"
	case Numeric:
		return "numeric"
	case Money:
		return "money"
	case Date:
		return "date"
	case Time:
		return "time"
	case Fixed:
		return "fixed"
	case Blank:
		return "blank"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Justify int

const (
	Left Justify = iota
	Right
)

type Field struct {
	Name     string
	Start    int
	End      int
	Kind     Kind
	Justify  Justify
	Pad      byte
	Required bool
	Const    string // content of Fixed fields
	Key      bool   // Fixed field that identifies the segment
}

func (f Field) Len() int { return f.End - f.Start + 1 }

// Offset is the 0-based index of the field's first character.
func (f Field) Offset() int { return f.Start - 1 }

type Segment struct {
	Type   domain.SegmentType
	Fields []Field
}

// Field returns the named field descriptor.
func (s *Segment) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Matches reports whether every key field of the segment carries its
// constant in line.
func (s *Segment) Matches(line []rune) bool {
	keyed := false
	for _, f := range s.Fields {
		if !f.Key {
			continue
		}
		keyed = true
		if f.End > len(line) || string(line[f.Offset():f.End]) != f.Const {
			return false
		}
	}
	return keyed
}

type Layout struct {
	Variant    domain.Variant
	Name       string
	LineLength int
	// Batched layouts wrap details in batch header/trailer segments.
	Batched bool
	// Segments in file order.
	Segments []Segment
	// Primary is the detail segment that carries the payment and its
	// control number; the rest of the detail segments are supplements.
	Primary     domain.SegmentType
	Details     []domain.SegmentType
	Occurrences OccurrenceTable
}

// Segment returns the segment layout for t.
func (l *Layout) Segment(t domain.SegmentType) (*Segment, error) {
	for i := range l.Segments {
		if l.Segments[i].Type == t {
			return &l.Segments[i], nil
		}
	}
	return nil, fmt.Errorf("%s segment %s: %w", l.Variant, t, domain.ErrUnsupportedLayout)
}

// Classify identifies the segment of a line by its key fields.
func (l *Layout) Classify(line []rune) (*Segment, error) {
	if len(line) != l.LineLength {
		return nil, fmt.Errorf("line length %d, want %d: %w", len(line), l.LineLength, domain.ErrMalformedFile)
	}
	for i := range l.Segments {
		if l.Segments[i].Matches(line) {
			return &l.Segments[i], nil
		}
	}
	return nil, fmt.Errorf("no %s segment matches line: %w", l.Variant, domain.ErrMalformedFile)
}

// IsDetail reports whether t is one of the layout's detail segments.
func (l *Layout) IsDetail(t domain.SegmentType) bool {
	for _, d := range l.Details {
		if d == t {
			return true
		}
	}
	return false
}

// clone deep-copies l, so a registry never shares its tables with callers.
func (l *Layout) clone() *Layout {
	c := *l
	c.Segments = make([]Segment, len(l.Segments))
	for i, seg := range l.Segments {
		c.Segments[i] = Segment{Type: seg.Type, Fields: append([]Field(nil), seg.Fields...)}
	}
	c.Details = append([]domain.SegmentType(nil), l.Details...)
	if l.Occurrences != nil {
		c.Occurrences = make(OccurrenceTable, len(l.Occurrences))
		for code, o := range l.Occurrences {
			c.Occurrences[code] = o
		}
	}
	return &c
}

// Registry maps variants to layouts. It is read-only after construction.
type Registry struct {
	layouts map[domain.Variant]*Layout
}

// NewRegistry validates and indexes copies of layouts.
func NewRegistry(layouts ...*Layout) (*Registry, error) {
	r := &Registry{layouts: make(map[domain.Variant]*Layout, len(layouts))}
	for _, l := range layouts {
		l = l.clone()
		if err := normalize(l); err != nil {
			return nil, fmt.Errorf("layout %s: %w", l.Variant, err)
		}
		if _, dup := r.layouts[l.Variant]; dup {
			return nil, fmt.Errorf("layout %s registered twice", l.Variant)
		}
		r.layouts[l.Variant] = l
	}
	return r, nil
}

// Layout returns a copy of the layout for v, or ErrUnsupportedLayout.
// Changing the copy does not affect the registry.
func (r *Registry) Layout(v domain.Variant) (*Layout, error) {
	l, ok := r.layouts[v]
	if !ok {
		return nil, fmt.Errorf("variant %q: %w", v, domain.ErrUnsupportedLayout)
	}
	return l.clone(), nil
}

// Lookup returns the ordered field descriptors of one segment.
func (r *Registry) Lookup(v domain.Variant, t domain.SegmentType) ([]Field, error) {
	l, ok := r.layouts[v]
	if !ok {
		return nil, fmt.Errorf("variant %q: %w", v, domain.ErrUnsupportedLayout)
	}
	s, err := l.Segment(t)
	if err != nil {
		return nil, err
	}
	out := make([]Field, len(s.Fields))
	copy(out, s.Fields)
	return out, nil
}

// Variants lists the registered variants in name order.
func (r *Registry) Variants() []domain.Variant {
	out := make([]domain.Variant, 0, len(r.layouts))
	for v := range r.layouts {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Default is the process-wide registry of supported layouts.
var Default = mustRegistry(cnab240(), cnab400())

func mustRegistry(layouts ...*Layout) *Registry {
	r, err := NewRegistry(layouts...)
	if err != nil {
		panic(err)
	}
	return r
}

// normalize fills justification and padding defaults per kind and checks
// that every segment tiles the line exactly.
func normalize(l *Layout) error {
	if l.LineLength <= 0 {
		return fmt.Errorf("line length %d", l.LineLength)
	}
	if l.Primary == "" || !l.IsDetail(l.Primary) {
		return fmt.Errorf("primary segment %q is not a detail segment", l.Primary)
	}
	for si := range l.Segments {
		s := &l.Segments[si]
		next := 1
		keyed := false
		for fi := range s.Fields {
			f := &s.Fields[fi]
			if f.Start != next {
				return fmt.Errorf("segment %s field %s starts at %d, want %d", s.Type, f.Name, f.Start, next)
			}
			if f.End < f.Start {
				return fmt.Errorf("segment %s field %s ends before it starts", s.Type, f.Name)
			}
			switch f.Kind {
			case Numeric, Money, Date, Time:
				f.Justify, f.Pad = Right, '0'
			case Alpha, Blank:
				f.Justify, f.Pad = Left, ' '
			case Fixed:
				if len([]rune(f.Const)) != f.Len() {
					return fmt.Errorf("segment %s field %s constant %q does not fill %d positions", s.Type, f.Name, f.Const, f.Len())
				}
				f.Justify, f.Pad = Left, ' '
			}
			if f.Key {
				if f.Kind != Fixed {
					return fmt.Errorf("segment %s key field %s must be fixed", s.Type, f.Name)
				}
				keyed = true
			}
			if f.Kind == Date && f.Len() != 8 {
				return fmt.Errorf("segment %s date field %s must be 8 wide", s.Type, f.Name)
			}
			if f.Kind == Time && f.Len() != 6 {
				return fmt.Errorf("segment %s time field %s must be 6 wide", s.Type, f.Name)
			}
			next = f.End + 1
		}
		if next-1 != l.LineLength {
			return fmt.Errorf("segment %s covers %d positions, want %d", s.Type, next-1, l.LineLength)
		}
		if !keyed {
			return fmt.Errorf("segment %s has no key field", s.Type)
		}
	}
	return nil
}
