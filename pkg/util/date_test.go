package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestAlignFromTo(t *testing.T) {
    from := time.Date(2024, 10, 10, 10, 13, 42, 0, time.UTC)
    to := time.Date(2024, 10, 10, 14, 7, 9, 0, time.UTC)

    f, tt := AlignFromTo(from, to, "15m")
    if f.Minute() != 0 || f.Second() != 0 {
        t.Fatalf("from not aligned to 15m: %v", f)
    }
    if tt.Minute() != 0 || tt.Second() != 0 {
        t.Fatalf("to not aligned to 15m: %v", tt)
    }

    f, tt = AlignFromTo(from, to, "4h")
    if f.Hour()%4 != 0 || f.Minute() != 0 {
        t.Fatalf("from not aligned to 4h: %v", f)
    }
    if tt.Hour()%4 != 0 || tt.Minute() != 0 {
        t.Fatalf("to not aligned to 4h: %v", tt)
    }

    // unknown timeframes fall back to hourly bars
    f, _ = AlignFromTo(from, to, "7m")
    if f.Minute() != 0 {
        t.Fatalf("fallback not hourly: %v", f)
    }
}