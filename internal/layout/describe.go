package layout

import "github.com/folhapay/remittance/internal/domain"

// Description is the serializable view of a layout.
type Description struct {
	Variant    domain.Variant       `json:"variant"`
	Name       string               `json:"name"`
	LineLength int                  `json:"line_length"`
	Batched    bool                 `json:"batched"`
	Segments   []SegmentDescription `json:"segments"`
}

type SegmentDescription struct {
	Type   domain.SegmentType `json:"type"`
	Fields []FieldDescription `json:"fields"`
}

type FieldDescription struct {
	Name     string `json:"name"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Kind     string `json:"kind"`
	Required bool   `json:"required,omitempty"`
	Const    string `json:"const,omitempty"`
}

// Describe lists every registered layout in variant order.
func (r *Registry) Describe() []Description {
	var out []Description
	for _, v := range r.Variants() {
		l := r.layouts[v]
		d := Description{Variant: l.Variant, Name: l.Name, LineLength: l.LineLength, Batched: l.Batched}
		for _, s := range l.Segments {
			sd := SegmentDescription{Type: s.Type}
			for _, f := range s.Fields {
				sd.Fields = append(sd.Fields, FieldDescription{
					Name: f.Name, Start: f.Start, End: f.End, Kind: f.Kind.String(),
					Required: f.Required, Const: f.Const,
				})
			}
			d.Segments = append(d.Segments, sd)
		}
		out = append(out, d)
	}
	return out
}
