package diagnosis

import (
	"phenosum/domain/table"
)

// Slot is one ranked (category, label) diagnosis pair. Rank 1 is the primary
// diagnosis.
type Slot struct {
	Rank     int
	Category string
	Label    string
}

// Empty reports whether the slot holds no diagnosis.
func (s Slot) Empty() bool {
	return s.Category == "" && s.Label == ""
}

// Slots is the ranked diagnosis sequence of one participant.
type Slots [SlotCount]Slot

// slotField holds the column positions of one slot. label is -1 when the
// table carries only the slot categories.
type slotField struct {
	category int
	label    int
}

// SlotIndex locates the ten slots in a table. Columns are resolved by name
// regardless of provenance, so a filtered cohort table works too.
type SlotIndex [SlotCount]slotField

// IndexSlots resolves the slot columns of t. Every category column is
// required; label columns are optional.
func IndexSlots(t *table.Table) (SlotIndex, error) {
	var ix SlotIndex
	for i := range ix {
		j, err := t.Require(CategoryColumn(i + 1))
		if err != nil {
			return ix, err
		}
		ix[i] = slotField{category: j, label: t.Index(LabelColumn(i + 1))}
	}
	return ix, nil
}

// Row reads the slots of row i.
func (ix SlotIndex) Row(t *table.Table, i int) Slots {
	var out Slots
	for s, f := range ix {
		out[s] = Slot{Rank: s + 1, Category: t.Value(i, f.category)}
		if f.label >= 0 {
			out[s].Label = t.Value(i, f.label)
		}
	}
	return out
}

// ReadSlots reads the slots of every row of t.
func ReadSlots(t *table.Table) ([]Slots, error) {
	ix, err := IndexSlots(t)
	if err != nil {
		return nil, err
	}
	out := make([]Slots, t.NumRows())
	for i := range out {
		out[i] = ix.Row(t, i)
	}
	return out, nil
}

// MapSlots returns a copy of t with every slot passed through fn. Rank
// changes are ignored, and labels are only written back when t has them.
func MapSlots(t *table.Table, fn func(Slot) Slot) (*table.Table, error) {
	ix, err := IndexSlots(t)
	if err != nil {
		return nil, err
	}
	rows := t.Records()
	for i, row := range rows {
		for s, slot := range ix.Row(t, i) {
			slot = fn(slot)
			row[ix[s].category] = slot.Category
			if ix[s].label >= 0 {
				row[ix[s].label] = slot.Label
			}
		}
	}
	return table.New(t.Columns(), rows)
}

// Record is one participant of a normalized diagnosis table.
type Record struct {
	Identifier    string
	Sex           string
	Age           string
	Race          string
	Ethnicity     string
	EnrollYear    string
	Site          string
	Comorbidities string
	Slots         Slots
}

// Category is the primary diagnosis category.
func (r Record) Category() string { return r.Slots[0].Category }

// Diagnosis is the primary diagnosis label.
func (r Record) Diagnosis() string { return r.Slots[0].Label }

// Diagnoses returns the non-empty slots in rank order.
func (r Record) Diagnoses() []Slot {
	var out []Slot
	for _, s := range r.Slots {
		if !s.Empty() {
			out = append(out, s)
		}
	}
	return out
}

// Records parses a normalized diagnosis table.
func Records(t *table.Table) ([]Record, error) {
	demo := []string{IdentifierField, SexField, AgeField, RaceField, EthnicityField, EnrollYearField, SiteField, ComorbiditiesField}
	demoIdx := make([]int, len(demo))
	for k, name := range demo {
		j, err := t.Require(name)
		if err != nil {
			return nil, err
		}
		demoIdx[k] = j
	}
	ix, err := IndexSlots(t)
	if err != nil {
		return nil, err
	}

	out := make([]Record, t.NumRows())
	for i := range out {
		v := func(j int) string { return t.Value(i, j) }
		out[i] = Record{
			Identifier:    v(demoIdx[0]),
			Sex:           v(demoIdx[1]),
			Age:           v(demoIdx[2]),
			Race:          v(demoIdx[3]),
			Ethnicity:     v(demoIdx[4]),
			EnrollYear:    v(demoIdx[5]),
			Site:          v(demoIdx[6]),
			Comorbidities: v(demoIdx[7]),
			Slots:         ix.Row(t, i),
		}
	}
	return out, nil
}
