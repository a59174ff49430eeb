package domain

// Key is the origin-specific identity of a vacancy
type Key struct {
	Source   string
	SourceID string
}

// Key returns the (Source, SourceID) identity
func (v Vacancy) Key() Key {
	return Key{Source: v.Source, SourceID: v.SourceID}
}

type content struct {
	name        string
	description string
}

// SameVacancy reports whether a and b describe the same vacancy:
// identical (Source, SourceID), or failing that identical Name and Description.
func SameVacancy(a, b Vacancy) bool {
	if a.Source == b.Source && a.SourceID == b.SourceID {
		return true
	}
	return a.Name == b.Name && a.Description == b.Description
}

// Index answers "is there an added vacancy v' with SameVacancy(v, v')" in constant time
type Index struct {
	keys     map[Key]struct{}
	contents map[content]struct{}
}

// NewIndex builds an index seeded with vs
func NewIndex(vs ...Vacancy) *Index {
	idx := &Index{
		keys:     make(map[Key]struct{}, len(vs)),
		contents: make(map[content]struct{}, len(vs)),
	}
	for _, v := range vs {
		idx.Add(v)
	}
	return idx
}

func (i *Index) Add(v Vacancy) {
	i.keys[v.Key()] = struct{}{}
	i.contents[content{name: v.Name, description: v.Description}] = struct{}{}
}

func (i *Index) Contains(v Vacancy) bool {
	if _, ok := i.keys[v.Key()]; ok {
		return true
	}
	_, ok := i.contents[content{name: v.Name, description: v.Description}]
	return ok
}

func (i *Index) Len() int {
	return len(i.keys)
}

// Filter returns the vacancies of vs not yet in the index, in order, adding each
// one it keeps so later duplicates inside vs are dropped too
func (i *Index) Filter(vs []Vacancy) []Vacancy {
	out := make([]Vacancy, 0, len(vs))
	for _, v := range vs {
		if i.Contains(v) {
			continue
		}
		i.Add(v)
		out = append(out, v)
	}
	return out
}
