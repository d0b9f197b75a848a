package infitable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type person struct {
	ID   int
	Name string
	Age  int
}

func personColumns() []Column[person] {
	return []Column[person]{
		Accessor("id", "ID", func(p person) int { return p.ID }),
		Accessor("name", "Name", func(p person) string { return p.Name }),
		{
			ID:             "age",
			Width:          5,
			DisableSorting: true,
			Cell:           func(p person) string { return "~" },
		},
	}
}

func Test_NewTable_Validation(t *testing.T) {
	noop := func(person) string { return "" }

	tests := []struct {
		name    string
		columns []Column[person]
		wantErr error
	}{
		{"empty schema", nil, ErrMissingColumns},
		{"empty id", []Column[person]{{Cell: noop}}, ErrInvalidColumn},
		{"missing cell", []Column[person]{{ID: "id"}}, ErrInvalidColumn},
		{"duplicate id", []Column[person]{{ID: "id", Cell: noop}, {ID: "id", Cell: noop}}, ErrInvalidColumn},
		{"valid", personColumns(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.columns)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_Table_NextSort_CycleCloses(t *testing.T) {
	table, err := NewTable(personColumns())
	require.NoError(t, err)

	spec := SortSpec{}
	want := []SortSpec{
		SortBy("name", DirectionASC),
		SortBy("name", DirectionDESC),
		{},
	}
	for i, w := range want {
		spec, err = table.NextSort(spec, "name")
		require.NoError(t, err)
		require.Equal(t, w, spec, "toggle %d", i+1)
	}
	require.True(t, spec.IsEmpty())
}

func Test_Table_NextSort_SwitchingColumnStartsAscending(t *testing.T) {
	table, err := NewTable(personColumns())
	require.NoError(t, err)

	spec, err := table.NextSort(SortBy("name", DirectionDESC), "id")
	require.NoError(t, err)
	require.Equal(t, SortBy("id", DirectionASC), spec)
}

func Test_Table_NextSort_Errors(t *testing.T) {
	table, err := NewTable(personColumns())
	require.NoError(t, err)

	current := SortBy("id", DirectionASC)

	spec, err := table.NextSort(current, "age")
	require.ErrorIs(t, err, ErrColumnNotSortable)
	require.Equal(t, current, spec)

	spec, err = table.NextSort(current, "salary")
	require.ErrorIs(t, err, ErrUnknownColumn)
	require.Equal(t, current, spec)
}

func Test_Table_HeaderGroups(t *testing.T) {
	table, err := NewTable(personColumns())
	require.NoError(t, err)

	groups := table.HeaderGroups(SortBy("name", DirectionDESC))
	require.Len(t, groups, 1)

	headers := groups[0].Headers
	require.Len(t, headers, 3)

	require.Equal(t, "ID", headers[0].Title)
	require.Equal(t, DefaultColumnWidth, headers[0].Width)
	require.True(t, headers[0].CanSort)
	require.Empty(t, headers[0].Indicator())

	require.Equal(t, DirectionDESC, headers[1].Sorted)
	require.Equal(t, " ⬇", headers[1].Indicator())

	require.Equal(t, "age", headers[2].Title, "title defaults to id")
	require.Equal(t, 5, headers[2].Width)
	require.False(t, headers[2].CanSort)
}

func Test_Table_Rows_KeepsSourceOrder(t *testing.T) {
	table, err := NewTable(personColumns())
	require.NoError(t, err)

	rows := table.Rows([]person{{ID: 7, Name: "Zoe"}, {ID: 3, Name: "Abe"}})

	require.Len(t, rows, 2)
	require.Equal(t, "0", rows[0].ID)
	require.Equal(t, "7", rows[0].Cells[0].Value)
	require.Equal(t, "Zoe", rows[0].Cells[1].Value)
	require.Equal(t, 1, rows[1].Index)
	require.Equal(t, "Abe", rows[1].Cells[1].Value)
	require.Equal(t, "age", rows[1].Cells[2].ColumnID)
}

func Test_Table_SchemaIsCaptured(t *testing.T) {
	columns := personColumns()
	table, err := NewTable(columns)
	require.NoError(t, err)

	columns[0].Header = "changed"

	col, ok := table.Column("id")
	require.True(t, ok)
	require.Equal(t, "ID", col.Header)
}
