package textclean_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/userload/pkg/batch/support/util/textclean"
)

func TestStripInvisible(t *testing.T) {
	cases := map[string]struct {
		in, want string
	}{
		"byte order mark":   {"\ufeffA", "A"},
		"zero width space":  {"A\u200b", "A"},
		"control chars":     {"\x00A\t", "A"},
		"private use":       {"\ue000A", "A"},
		"plain text":        {"Name", "Name"},
		"non ascii letters": {"\u00dcn\u00efc\u00f6d\u00e9", "\u00dcn\u00efc\u00f6d\u00e9"},
		"empty":             {"", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, textclean.StripInvisible(tc.in))
		})
	}
}

func TestCleanHeader_OnlyFirstField(t *testing.T) {
	in := []string{"\ufeffA", "B\u200b"}
	out := textclean.CleanHeader(in)

	assert.Equal(t, []string{"A", "B\u200b"}, out)
	assert.Equal(t, "\ufeffA", in[0], "input is not modified")
	assert.Empty(t, textclean.CleanHeader(nil))
}
