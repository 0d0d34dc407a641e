package dialect

import (
	"errors"
	"testing"
)

func TestSQLite_ParamPlaceholder(t *testing.T) {
	if got := SQLite.ParamPlaceholder(0); got != "?1" {
		t.Errorf("ParamPlaceholder(0) = %q, want %q", got, "?1")
	}
	if got := SQLite.ParamPlaceholder(1); got != "?2" {
		t.Errorf("ParamPlaceholder(1) = %q, want %q", got, "?2")
	}
}

func TestSQLite_ConvertTimezone(t *testing.T) {
	for _, tz := range []string{"UTC", "Etc/UTC", "utc", "+00:00"} {
		sql, err := SQLite.ConvertTimezone("ts_col", tz)
		if err != nil {
			t.Fatalf("ConvertTimezone(%q) failed: %v", tz, err)
		}
		if sql != "datetime(ts_col)" {
			t.Errorf("ConvertTimezone(%q) = %q", tz, sql)
		}
	}
}

func TestSQLite_ConvertTimezone_NamedZoneUnsupported(t *testing.T) {
	_, err := SQLite.ConvertTimezone("ts_col", "America/New_York")
	if !errors.Is(err, ErrUnsupportedDialectFeature) {
		t.Fatalf("expected ErrUnsupportedDialectFeature, got %v", err)
	}
}

func TestSQLite_TimeGroupedColumn(t *testing.T) {
	tests := []struct {
		granularity Granularity
		expected    string
	}{
		{Second, `strftime('%Y-%m-%dT%H:%M:%S.000', created_at)`},
		{Day, `strftime('%Y-%m-%dT00:00:00.000', created_at)`},
		{Year, `strftime('%Y-01-01T00:00:00.000', created_at)`},
		{Week, `strftime('%Y-%m-%dT00:00:00.000', date(created_at, '-6 days', 'weekday 1'))`},
		{Quarter, `(strftime('%Y-', created_at) || printf('%02d', ((CAST(strftime('%m', created_at) AS INTEGER) - 1) / 3) * 3 + 1) || '-01T00:00:00.000')`},
	}

	for _, tt := range tests {
		t.Run(string(tt.granularity), func(t *testing.T) {
			sql, err := SQLite.TimeGroupedColumn(tt.granularity, "created_at")
			if err != nil {
				t.Fatalf("TimeGroupedColumn failed: %v", err)
			}
			if sql != tt.expected {
				t.Errorf("expected SQL:\n%s\ngot:\n%s", tt.expected, sql)
			}
		})
	}
}

func TestSQLite_ApproxDistinctUnsupported(t *testing.T) {
	if _, err := CountDistinctApprox(SQLite, "user_id"); !errors.Is(err, ErrUnsupportedDialectFeature) {
		t.Fatalf("expected ErrUnsupportedDialectFeature, got %v", err)
	}
}

func TestSQLite_BooleanTemplates(t *testing.T) {
	got, err := SQLite.Templates().Get("expressions.true")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "1" {
		t.Errorf("expressions.true = %q, want %q", got, "1")
	}
}
