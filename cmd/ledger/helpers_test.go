package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/testutil"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "42.10", want: "42.1"},
		{in: "-20.50", want: "-20.5"},
		{in: "1,234.56", want: "1234.56"},
		{in: " 7 ", want: "7"},
		{in: "ten", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String())
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseDate("05/03/2024")
	assert.Error(t, err)
}

func TestReportFlags_Filters(t *testing.T) {
	now := time.Date(2024, time.June, 12, 9, 30, 0, 0, time.UTC)

	f, err := (&reportFlags{granularity: "monthly"}).filters(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), f.StartDate)
	assert.Equal(t, now, f.EndDate)
	assert.Equal(t, model.GranularityMonthly, f.Granularity)

	f, err = (&reportFlags{from: "2024-02-01", to: "2024-02-29", granularity: "weekly"}).filters(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), f.EndDate)

	f, err = (&reportFlags{from: "2024-05-10", to: "2024-05-01", granularity: "daily"}).filters(now)
	require.NoError(t, err)
	assert.Equal(t, f.StartDate, f.EndDate)

	_, err = (&reportFlags{granularity: "hourly"}).filters(now)
	assert.Error(t, err)
}

func TestFindAccountAndCategory(t *testing.T) {
	s := ledger.NewSnapshot(
		[]model.Account{testutil.NewAccount("a1").Named("Checking").Build()},
		nil,
		model.DefaultCategories(),
		nil,
	)

	acct, err := findAccount(s, "checking")
	require.NoError(t, err)
	assert.Equal(t, "a1", acct.ID)
	acct, err = findAccount(s, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Checking", acct.Name)
	_, err = findAccount(s, "Savings")
	assert.ErrorIs(t, err, common.ErrAccountNotFound)

	c, err := findCategory(s, "salary", model.CategoryTypeIncome)
	require.NoError(t, err)
	assert.Equal(t, "Salary", c.Name)
	_, err = findCategory(s, "salary", model.CategoryTypeExpense)
	assert.ErrorIs(t, err, common.ErrCategoryNotFound)
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"jan.qfx", "feb.OFX", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "jan.qfx"), filepath.Join(dir, "feb.OFX")}, files)

	_, err = expandFiles([]string{filepath.Join(dir, "missing.qfx")})
	assert.Error(t, err)

	_, err = expandFiles([]string{filepath.Join(dir, "notes.txt")})
	assert.Error(t, err)
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))
}
