package infitable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Direction_Valid_And_Indicator(t *testing.T) {
	tests := []struct {
		name      string
		in        Direction
		valid     bool
		indicator string
	}{
		{"ASC valid with up arrow", DirectionASC, true, " ⬆"},
		{"DESC valid with down arrow", DirectionDESC, true, " ⬇"},
		{"none invalid without glyph", DirectionNone, false, ""},
		{"garbage invalid without glyph", Direction("sideways"), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Valid(); got != tt.valid {
				t.Errorf("%s: Valid=%v want %v", tt.name, got, tt.valid)
			}
			if got := tt.in.Indicator(); got != tt.indicator {
				t.Errorf("%s: Indicator=%q want %q", tt.name, got, tt.indicator)
			}
		})
	}
}

func Test_SortSpec_validate(t *testing.T) {
	tests := []struct {
		name string
		spec SortSpec
		ok   bool
	}{
		{"empty is unsorted and valid", SortSpec{}, true},
		{"invalid direction", SortSpec{Column: "id", Direction: "bad"}, false},
		{"forbidden symbols", SortSpec{Column: "id; DROP TABLE users", Direction: DirectionASC}, false},
		{"valid spec", SortBy("u.id", DirectionDESC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.spec.validate(); (err == nil) != tt.ok {
				t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
			}
		})
	}
}

func Test_SortSpec_DirectionFor(t *testing.T) {
	spec := SortBy("name", DirectionASC)

	require.Equal(t, DirectionASC, spec.DirectionFor("name"))
	require.Equal(t, DirectionNone, spec.DirectionFor("id"))
	require.Equal(t, DirectionNone, SortSpec{}.DirectionFor("name"))
	require.Equal(t, "name ASC", spec.ToSQL())
	require.Empty(t, SortSpec{Column: "name"}.String())
}

func Test_ParseSort(t *testing.T) {
	mapping := ColumnMapping{
		"id":   "t.id",
		"name": "t.name",
	}

	tests := []struct {
		name string
		in   string
		ok   bool
		want SortSpec
	}{
		{"empty is unsorted", "  ", true, SortSpec{}},
		{"invalid format", "id", false, SortSpec{}},
		{"invalid direction", "id up", false, SortSpec{}},
		{"unknown alias", "idx asc", false, SortSpec{}},
		{"valid asc", "id asc", true, SortBy("t.id", DirectionASC)},
		{"valid desc", "name DESC", true, SortBy("t.name", DirectionDESC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.in, mapping)
			if (err == nil) != tt.ok {
				t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
				return
			}
			if tt.ok && got != tt.want {
				t.Errorf("%s: got=%v want %v", tt.name, got, tt.want)
			}
		})
	}
}

func Test_ParseSort_UnknownAliasSuggestsClosest(t *testing.T) {
	_, err := ParseSort("nmae desc", ColumnMapping{"id": "id", "name": "name"})

	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownColumn))
	require.Contains(t, err.Error(), "closest: 'name'")
}

func Test_closestAlias(t *testing.T) {
	aliases := []ColumnAlias{"id", "name", "created_at"}
	tests := []struct {
		name string
		in   ColumnAlias
		out  ColumnAlias
	}{
		{"closest to id", "idx", "id"},
		{"closest to name", "nme", "name"},
		{"closest to created_at", "createdat", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := closestAlias(tt.in, aliases); got != tt.out {
				t.Errorf("%s: got %s want %s", tt.name, got, tt.out)
			}
		})
	}
}
