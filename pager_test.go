package infitable

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_Pager_WithMethods(t *testing.T) {
	p := (*Pager)(nil)
	p = p.WithLimit(5).
		WithLookahead().
		WithOffset(40).
		WithSort(SortBy("id", DirectionASC)).
		WithSort(SortBy("created_at", DirectionDESC))

	require.True(t, p.IsLookahead())
	require.Equal(t, 5, p.GetLimit())
	require.Equal(t, 6, p.GetDatasetLimit())
	require.Equal(t, 40, p.GetCursor().GetOffset())
	require.Equal(t, SortBy("created_at", DirectionDESC), p.GetSort())
}

func Test_Pager_validate(t *testing.T) {
	tests := []struct {
		name    string
		pager   *Pager
		wantErr bool
	}{
		{
			name:    "standard case, ok",
			pager:   &Pager{limit: 10, cursor: &OffsetCursor{offset: 20}, sort: SortBy("id", DirectionASC)},
			wantErr: false,
		},
		{
			name:    "unsorted is fine",
			pager:   &Pager{limit: 10},
			wantErr: false,
		},
		{
			name:    "missing limit",
			pager:   &Pager{cursor: &OffsetCursor{offset: 20}},
			wantErr: true,
		},
		{
			name:    "negative offset",
			pager:   &Pager{limit: 10, cursor: &OffsetCursor{offset: -1}},
			wantErr: true,
		},
		{
			name:    "invalid direction",
			pager:   &Pager{limit: 10, sort: SortSpec{Column: "id", Direction: "UP"}},
			wantErr: true,
		},
		{
			name:    "nil pager is invalid",
			pager:   (*Pager)(nil),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotErr := tt.pager.validate(); (gotErr != nil) != tt.wantErr {
				t.Errorf("%s: got error = %v, want error = %v", tt.name, gotErr, tt.wantErr)
			}
		})
	}
}

func Test_Pager_Paginate(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	type tUser struct {
		ID   uint
		Name string
	}

	tests := []struct {
		name          string
		limit         int
		cursor        *OffsetCursor
		sort          SortSpec
		lookahead     bool
		expectedQuery string
	}{
		{
			name:          "basic pagination with limit and offset",
			limit:         3,
			cursor:        &OffsetCursor{offset: 5},
			sort:          SortBy("id", DirectionASC),
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = ['\"]lol['\"] ORDER BY id ASC LIMIT 3 OFFSET 5$",
		},
		{
			name:          "pagination with lookahead",
			limit:         3,
			cursor:        &OffsetCursor{offset: 5},
			sort:          SortBy("id", DirectionDESC),
			lookahead:     true,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY id DESC LIMIT 4 OFFSET 5$",
		},
		{
			name:          "first page has no offset",
			limit:         5,
			cursor:        &OffsetCursor{offset: 0},
			sort:          SortBy("id", DirectionASC),
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY id ASC LIMIT 5$",
		},
		{
			name:          "unsorted with nil cursor",
			limit:         10,
			cursor:        nil,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] LIMIT 10$",
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				if err != nil {
					t.Fatalf("gorm open: %v", err)
				}

				dbMock.ExpectQuery(tt.expectedQuery).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "John Doe"))

				p := NewPager().
					WithLimit(tt.limit).
					WithCursor(tt.cursor).
					WithSort(tt.sort)

				if tt.lookahead {
					p = p.WithLookahead()
				}

				paged, err := p.Paginate(db.Select("*").Table("users").Where("name = 'lol'"))
				if err != nil {
					t.Fatalf("paginate: %v", err)
				}

				err = paged.Find(&[]tUser{}).Error
				if err != nil {
					t.Fatalf("find: %v", err)
				}

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_OffsetCursor_String(t *testing.T) {
	tests := []struct {
		name     string
		cursor   *OffsetCursor
		expected string
		sql      string
	}{
		{"nil", nil, "", "0"},
		{"zero", NewOffsetCursor(0), "", "0"},
		{"non-zero", NewOffsetCursor(120), base64.RawURLEncoding.EncodeToString([]byte("120")), "120"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.cursor.String())
			require.Equal(t, tt.sql, tt.cursor.ToSQL())
			require.Equal(t, tt.expected == "", tt.cursor.IsEmpty())
		})
	}
}

func Test_NextPageOffsetCursor(t *testing.T) {
	type item struct{ ID int }

	tests := []struct {
		name        string
		pager       *Pager
		input       []item
		expectedRes []item
		expectedCur *OffsetCursor
	}{
		{
			name:        "short page is the last one",
			pager:       NewPager().WithLimit(3),
			input:       []item{{1}, {2}},
			expectedRes: []item{{1}, {2}},
			expectedCur: nil,
		},
		{
			name:        "full page continues",
			pager:       NewPager().WithLimit(2).WithOffset(4),
			input:       []item{{5}, {6}},
			expectedRes: []item{{5}, {6}},
			expectedCur: &OffsetCursor{offset: 6},
		},
		{
			name:        "lookahead row is trimmed",
			pager:       NewPager().WithLimit(2).WithLookahead(),
			input:       []item{{1}, {2}, {3}},
			expectedRes: []item{{1}, {2}},
			expectedCur: &OffsetCursor{offset: 2},
		},
		{
			name:        "lookahead without extra row is last",
			pager:       NewPager().WithLimit(2).WithLookahead(),
			input:       []item{{1}, {2}},
			expectedRes: []item{{1}, {2}},
			expectedCur: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, cur, err := NextPageOffsetCursor(tt.pager, tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.expectedRes, res)
			require.Equal(t, tt.expectedCur, cur)
		})
	}
}
