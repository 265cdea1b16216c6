package planner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-shipyard/filechunker/chunker"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/planner"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/planner/fixedcount"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/planner/fixedsize"
)

var plugins = map[string]planner.Initializer{
	"fixed-count": fixedcount.NewPlanner,
	"fixed-size":  fixedsize.NewPlanner,
}

func TestHelpText(t *testing.T) {
	for name, init := range plugins {
		inst, help := init(nil, nil)
		assert.Nil(t, inst, name)
		require.NotEmpty(t, help, name)
		assert.True(t, strings.HasPrefix(help[0], "  "), name)
	}
}

func TestInit(t *testing.T) {
	data := []byte("01\n23\n45\n67\n89")
	cfg := &planner.Config{Delimiter: chunker.Byte('\n'), DefaultCount: 3}

	for _, tc := range []struct {
		plugin string
		args   []string
		errs   int
		expect []chunker.Range
	}{
		{"fixed-count", []string{"fixed-count"}, 0, []chunker.Range{{Start: 0, End: 6}, {Start: 6, End: 12}, {Start: 12, End: 14}}},
		{"fixed-count", []string{"fixed-count", "--2"}, 0, []chunker.Range{{Start: 0, End: 9}, {Start: 9, End: 14}}},
		{"fixed-count", []string{"fixed-count", "--0"}, 1, nil},
		{"fixed-count", []string{"fixed-count", "--x"}, 1, nil},
		{"fixed-count", []string{"fixed-count", "--99999999"}, 1, nil},
		{"fixed-count", []string{"fixed-count", "--1", "--2"}, 1, nil},
		{"fixed-size", []string{"fixed-size", "--4"}, 0, []chunker.Range{{Start: 0, End: 6}, {Start: 6, End: 12}, {Start: 12, End: 14}}},
		{"fixed-size", []string{"fixed-size", "--100"}, 0, []chunker.Range{{Start: 0, End: 14}}},
		{"fixed-size", []string{"fixed-size"}, 1, nil},
		{"fixed-size", []string{"fixed-size", "--0"}, 1, nil},
		{"fixed-size", []string{"fixed-size", "---1"}, 1, nil},
		{"fixed-size", []string{"fixed-size", "--4294967296"}, 1, nil},
	} {
		tc := tc
		t.Run(strings.Join(tc.args, "_"), func(t *testing.T) {
			p, errs := plugins[tc.plugin](tc.args, cfg)
			require.Len(t, errs, tc.errs, "%v", errs)
			if tc.errs > 0 {
				return
			}

			got, err := p.Plan(data)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}
