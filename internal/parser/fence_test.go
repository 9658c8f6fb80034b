package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no fence", in: "  name: Jane\n", want: "name: Jane"},
		{name: "yaml fence", in: "```yaml\nname: Jane\nemail: j@x.io\n```", want: "name: Jane\nemail: j@x.io"},
		{name: "bare fence", in: "```\nname: Jane\n```", want: "name: Jane"},
		{name: "chatter around fence", in: "Here you go:\n```yaml\nname: Jane\n```\nLet me know!", want: "name: Jane"},
		{name: "single line fence", in: "```name: Jane```", want: "name: Jane"},
		{name: "payload on fence line", in: "```name: Jane\nemail: j@x.io\n```", want: "name: Jane\nemail: j@x.io"},
		{name: "empty fenced block", in: "```yaml\n```", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripCodeFence(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := StripCodeFence(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "stripping twice must equal stripping once")
		})
	}
}

func TestStripCodeFenceUnterminated(t *testing.T) {
	for _, in := range []string{"```yaml\nname: Jane\n", "```yaml", "text ```"} {
		_, err := StripCodeFence(in)
		assert.True(t, errors.Is(err, ErrUnterminatedFence), "input %q: got %v", in, err)
	}
}
