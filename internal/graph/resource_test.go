package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResource(t *testing.T) {
	tests := []struct {
		input string
		want  Resource
	}{
		{"~zod/chat", Resource{Ship: "~zod", Name: "chat"}},
		{"zod/chat", Resource{Ship: "~zod", Name: "chat"}},
		{"/ship/~bus/dm-inbox", Resource{Ship: "~bus", Name: "dm-inbox"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseResource(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResource_Invalid(t *testing.T) {
	for _, in := range []string{"", "~zod", "~zod/", "/chat", "~zod/a/b", "~/x"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseResource(in)
			assert.Error(t, err)
		})
	}
}

func TestResource_String(t *testing.T) {
	assert.Equal(t, "~zod/chat", MustParseResource("zod/chat").String())
}

func TestCompareResources(t *testing.T) {
	a := MustParseResource("~bus/b")
	b := MustParseResource("~zod/a")
	c := MustParseResource("~zod/b")
	assert.Negative(t, compareResources(a, b))
	assert.Negative(t, compareResources(b, c))
	assert.Zero(t, compareResources(c, c))
}
