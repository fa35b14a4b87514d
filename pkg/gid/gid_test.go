package gid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"GCF_005435135.1", "G005435135"},
		{"GCA_002498365.1", "G002498365"},
		{"RS_GCF_000024185.1", "G000024185"},
		{"GB_GCA_002498365.1", "G002498365"},
		{"G005435135", "G005435135"},
		{"GCF_005435135", "G005435135"},
		// Version suffix goes, whatever follows it too.
		{"GCF_005435135.1_extra", "G005435135"},
		// User genomes keep their id verbatim.
		{"U_genomeA", "U_genomeA"},
		{"U123.fna", "U123.fna"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Canonical(tc.in), "Canonical(%q)", tc.in)
	}
}
