package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Criteria(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []Criterion
	}{
		{
			name:   "empty filter",
			filter: Filter{},
			want:   nil,
		},
		{
			name:   "single field",
			filter: Filter{Author: "fleming"},
			want:   []Criterion{{Field: FieldAuthor, Value: "fleming"}},
		},
		{
			name:   "all fields keep a stable order",
			filter: Filter{ISBN: "U1", Title: "Royale", Author: "Ian"},
			want: []Criterion{
				{Field: FieldTitle, Value: "Royale"},
				{Field: FieldAuthor, Value: "Ian"},
				{Field: FieldISBN, Value: "U1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Criteria())
		})
	}
}

func TestCriterion_Matches(t *testing.T) {
	b := Book{Title: "Cassino Royale", Author: "Ian Fleming", ISBN: "U1234"}

	tests := []struct {
		name      string
		criterion Criterion
		want      bool
	}{
		{"substring", Criterion{FieldTitle, "Royale"}, true},
		{"ignores case", Criterion{FieldTitle, "cASSINO"}, true},
		{"whole value", Criterion{FieldAuthor, "Ian Fleming"}, true},
		{"no match", Criterion{FieldAuthor, "Tolkien"}, false},
		{"isbn fragment", Criterion{FieldISBN, "u12"}, true},
		{"unknown field", Criterion{Field("publisher"), "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criterion.Matches(b))
		})
	}
}

func TestMatchAll(t *testing.T) {
	b := Book{Title: "Cassino Royale", Author: "Ian Fleming", ISBN: "U1234"}

	assert.True(t, MatchAll(nil, b), "no criteria matches everything")
	assert.True(t, MatchAll(Filter{Title: "royale", Author: "fleming"}.Criteria(), b))
	assert.False(t, MatchAll(Filter{Title: "royale", Author: "tolkien"}.Criteria(), b), "criteria are ANDed")
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(Filter{Title: "école", Author: "MOLIÈRE"}.Criteria())

	assert.True(t, m.Match(Book{Title: "L'ÉCOLE DES FEMMES", Author: "Molière"}))
	assert.True(t, m.Match(Book{Title: "École des maris", Author: "molière"}), "a matcher is reusable")
	assert.False(t, m.Match(Book{Title: "École des maris", Author: "Racine"}))
	assert.Equal(t, FoldCase("ÉCOLE"), FoldCase("école"))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%Royale%", LikePattern("Royale"))
	assert.Equal(t, `%100\%%`, LikePattern("100%"))
	assert.Equal(t, `%a\_b%`, LikePattern("a_b"))
	assert.Equal(t, `%c:\\dir%`, LikePattern(`c:\dir`))
}

func TestPageRequest_Normalize(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 0, Size: DefaultPageSize, Sort: SortTitle}, PageRequest{Page: -1}.Normalize())
	assert.Equal(t, PageRequest{Page: 2, Size: MaxPageSize, Sort: SortAuthor, Desc: true},
		PageRequest{Page: 2, Size: 1000, Sort: SortAuthor, Desc: true}.Normalize())
	assert.Equal(t, 30, PageRequest{Page: 3, Size: 10}.Offset())
}

func TestPage_TotalPages(t *testing.T) {
	p := Page{Request: PageRequest{Page: 0, Size: 10}, TotalElements: 21}
	assert.Equal(t, 3, p.TotalPages())
	assert.True(t, p.HasNext())

	p.Request.Page = 2
	assert.False(t, p.HasNext())

	assert.Equal(t, 0, Page{}.TotalPages())
}
