package textlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess(t *testing.T) {
	text := "red dress # note\n\n  \n# only comment\nblue hat\n"
	cases := []struct {
		name        string
		cut, ignore bool
		want        []string
	}{
		{"cut+ignore", true, true, []string{"red dress ", "blue hat"}},
		{"cut only", true, false, []string{"red dress ", "", "  ", "", "blue hat", ""}},
		{"ignore only", false, true, []string{"red dress # note", "# only comment", "blue hat"}},
		{"raw", false, false, []string{"red dress # note", "", "  ", "# only comment", "blue hat", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Preprocess(text, tc.cut, tc.ignore))
		})
	}
}

func TestBoundAndPick(t *testing.T) {
	assert.Equal(t, 0, BoundIndex(5, 0))
	assert.Equal(t, 0, BoundIndex(-3, 4))
	assert.Equal(t, 3, BoundIndex(9, 4))
	assert.Equal(t, 2, BoundIndex(2, 4))

	assert.Equal(t, []string{}, PickByIndex(1, nil))
	assert.Equal(t, []string{"c"}, PickByIndex(99, []string{"a", "b", "c"}))
	assert.Equal(t, []string{"b"}, PickByIndex(1, []string{"a", "b", "c"}))
}

func TestProduct(t *testing.T) {
	got := Product([]string{"cat", "dog"}, []string{"red", "blue", "green"}, ", ")
	assert.Equal(t, []string{
		"cat, red", "cat, blue", "cat, green",
		"dog, red", "dog, blue", "dog, green",
	}, got)
	assert.Empty(t, Product(nil, []string{"x"}, "-"))
}

func TestFormatting(t *testing.T) {
	list := Wrap([]string{"a", "b"}, "<", ">")
	assert.Equal(t, []string{"<a>", "<b>"}, list)
	assert.Equal(t, "<a>\n<b>", Multiline(list))
	assert.Equal(t, "#0\n<a>\n\n#1\n<b>\n", Enumerated(list))
	assert.Equal(t, "# 0\n<a>\n# 1\n<b>", Numbered(list))
	assert.Equal(t, "", Enumerated(nil))
	assert.Equal(t, []int{0, 1, 2}, Range(3))
}

func TestJoin(t *testing.T) {
	s := func(v string) *string { return &v }
	vals := []*string{s("masterpiece"), nil, s("   "), s("oil painting"), s("portrait")}
	assert.Equal(t, "masterpiece, oil painting, portrait", Join(vals, ", "))
	assert.Equal(t, "masterpiece\noil painting\nportrait", Join(vals, `\n`))
	assert.Equal(t, "", Join(nil, ", "))
}
