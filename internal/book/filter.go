package book

import (
	"strings"

	"golang.org/x/text/cases"
)

// Field names a searchable book attribute. The values double as column names.
type Field string

const (
	FieldTitle  Field = "title"
	FieldAuthor Field = "author"
	FieldISBN   Field = "isbn"
)

// Criterion is a case-insensitive "contains" test on a single field.
type Criterion struct {
	Field Field
	Value string
}

// Criteria returns one criterion per populated field of the filter, in a
// stable order. An empty filter yields no criteria and matches everything.
func (f Filter) Criteria() []Criterion {
	var out []Criterion
	if f.Title != "" {
		out = append(out, Criterion{Field: FieldTitle, Value: f.Title})
	}
	if f.Author != "" {
		out = append(out, Criterion{Field: FieldAuthor, Value: f.Author})
	}
	if f.ISBN != "" {
		out = append(out, Criterion{Field: FieldISBN, Value: f.ISBN})
	}
	return out
}

func (c Criterion) value(b Book) (string, bool) {
	switch c.Field {
	case FieldTitle:
		return b.Title, true
	case FieldAuthor:
		return b.Author, true
	case FieldISBN:
		return b.ISBN, true
	}
	return "", false
}

// Matches reports whether b's field contains the criterion value, ignoring case.
func (c Criterion) Matches(b Book) bool {
	return NewMatcher([]Criterion{c}).Match(b)
}

// Matcher tests books against a fixed set of criteria. The criterion values
// are folded once; a Matcher is not safe for concurrent use.
type Matcher struct {
	fold     cases.Caser
	criteria []Criterion
}

func NewMatcher(criteria []Criterion) *Matcher {
	m := &Matcher{fold: cases.Fold(), criteria: make([]Criterion, len(criteria))}
	for i, c := range criteria {
		m.criteria[i] = Criterion{Field: c.Field, Value: m.fold.String(c.Value)}
	}
	return m
}

// Match ANDs the criteria together.
func (m *Matcher) Match(b Book) bool {
	for _, c := range m.criteria {
		v, ok := c.value(b)
		if !ok || !strings.Contains(m.fold.String(v), c.Value) {
			return false
		}
	}
	return true
}

// MatchAll ANDs the criteria together.
func MatchAll(criteria []Criterion, b Book) bool {
	return NewMatcher(criteria).Match(b)
}

// FoldCase applies Unicode case folding, the comparison form used by every store.
func FoldCase(s string) string {
	return cases.Fold().String(s)
}

// LikePattern turns a criterion value into a "%value%" LIKE pattern with
// backslash as the escape character, so % and _ match literally.
func LikePattern(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(value) + "%"
}
