package ident_test

import (
	"testing"

	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/stretchr/testify/assert"
)

func TestSquash(t *testing.T) {
	tests := []struct {
		msg, input, want string
	}{
		{"lowercases", "Foo Bar", "foobar"},
		{"strips punctuation", "foo, bar: baz!", "foobarbaz"},
		{"strips all whitespace", "foo \t bar\nbaz", "foobarbaz"},
		{"keeps digits", "GPT-4 rocks", "gpt4rocks"},
		{"unicode letters survive", "Škoda Müller", "škodamüller"},
		{"empty stays empty", "", ""},
		{"only punctuation collapses", "?!...", ""},
	}

	for _, v := range tests {
		assert.Equal(t, v.want, ident.Squash(v.input), v.msg)
	}
}

func TestSquashAll(t *testing.T) {
	res := ident.SquashAll([]string{"A. Smith", "B. Jones"})
	assert.Equal(t, []string{"asmith", "bjones"}, res)
}
