package spdx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Requirements(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "MIT", []string{"MIT"}},
		{"or", "MIT OR Apache-2.0", []string{"MIT", "Apache-2.0"}},
		{"slash", "MIT/Apache-2.0", []string{"MIT", "Apache-2.0"}},
		{"lowercase operators", "mit or apache-2.0", []string{"mit", "apache-2.0"}},
		{"with", "Apache-2.0 WITH LLVM-exception", []string{"Apache-2.0 WITH LLVM-exception"}},
		{"nested", "(MIT OR Apache-2.0) AND Unicode-3.0", []string{"MIT", "Apache-2.0", "Unicode-3.0"}},
		{"or later", "GPL-2.0+", []string{"GPL-2.0+"}},
		{"mixed", "Apache-2.0 WITH LLVM-exception OR Apache-2.0 OR MIT", []string{"Apache-2.0 WITH LLVM-exception", "Apache-2.0", "MIT"}},
		{"padded", "  Zlib  ", []string{"Zlib"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.in)
			require.NoError(t, err)

			var got []string
			for _, r := range expr.Requirements() {
				got = append(got, r.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_StringIsTrimmedSource(t *testing.T) {
	expr, err := Parse("  MIT/Apache-2.0 \n")
	require.NoError(t, err)
	assert.Equal(t, "MIT/Apache-2.0", expr.String())
}

func TestParse_OtherItems(t *testing.T) {
	expr, err := Parse("MIT AND LicenseRef-Proprietary")
	require.NoError(t, err)

	reqs := expr.Requirements()
	require.Len(t, reqs, 2)
	assert.False(t, reqs[0].License.Other)
	assert.True(t, reqs[1].License.Other)
	assert.Equal(t, "LicenseRef-Proprietary", reqs[1].License.ID)

	expr, err = Parse("DocumentRef-spdx-tool-1.2:LicenseRef-MIT-Style-2")
	require.NoError(t, err)
	reqs = expr.Requirements()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].License.Other)
	assert.Equal(t, "DocumentRef-spdx-tool-1.2", reqs[0].License.DocumentRef)
	assert.Equal(t, "DocumentRef-spdx-tool-1.2:LicenseRef-MIT-Style-2", reqs[0].License.String())
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"MIT OR",
		"OR MIT",
		"(MIT",
		"MIT)",
		"MIT Apache-2.0",
		"Apache-2.0 WITH",
		"Apache-2.0 WITH (MIT)",
		"MIT AND AND ISC",
		"M!T",
		"DocumentRef-foo",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestRequirements_ReturnsCopy(t *testing.T) {
	expr := MustParse("MIT OR ISC")
	reqs := expr.Requirements()
	reqs[0].License.ID = "changed"
	assert.Equal(t, "MIT", expr.Requirements()[0].License.ID)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("AND") })
}
