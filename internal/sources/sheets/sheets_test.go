package sheets

import (
	"context"
	"errors"
	"testing"

	"ledgerstats/internal/log"
	"ledgerstats/internal/sources"
)

type fakeValues struct {
	byRange map[string][][]interface{}
	err     error
	calls   []string
}

func (f *fakeValues) Get(_ context.Context, _ string, rng string) ([][]interface{}, error) {
	f.calls = append(f.calls, rng)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.byRange[rng]
	if !ok {
		return nil, errors.New("unable to parse range: " + rng)
	}
	return v, nil
}

func TestParseLedger(t *testing.T) {
	values := [][]interface{}{
		{},
		{"日期", "金额", "类别", "标签", "备注", "账本"},
		{"2024-03-15 12:30:00", "-30.50", "餐饮", "午饭", "", "日常"},
		{"", -5.0, "餐饮"},
		{"2024-03-16", 100.0, "工资"},
	}
	records := parseLedger(values)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	if records[0].Amount != -30.5 || records[0].Book != "日常" || records[0].Tag != "午饭" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Amount != 100 || records[1].Book != "" || records[1].CounterParty != "" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestParseLedger_Empty(t *testing.T) {
	if got := parseLedger(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestParseCategoryMeta(t *testing.T) {
	meta := parseCategoryMeta([][]interface{}{
		{"category", "icon", "color"},
		{"餐饮", "🍜", "#ff0000"},
		{"交通"},
		{"#comment", "x"},
		{""},
	})
	if len(meta) != 2 {
		t.Fatalf("expected 2 entries, got %+v", meta)
	}
	if meta["餐饮"].Color != "#ff0000" || meta["交通"].Icon != "" {
		t.Errorf("unexpected meta: %+v", meta)
	}
}

func TestClientFetch(t *testing.T) {
	fv := &fakeValues{byRange: map[string][][]interface{}{
		"Ledger!A:Z": {
			{"date", "amount", "category"},
			{"2024-01-01", "-1", "餐饮"},
		},
	}}
	c := newClient(fv, Config{SpreadsheetID: "sheet-id"}, log.Discard())

	resp, err := c.FetchRecords(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !resp.Success || resp.Total != 1 || resp.AllItems[0].Category != "餐饮" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// Missing categories tab falls back to empty metadata.
	meta, err := c.FetchCategoryMeta(context.Background())
	if err != nil || !meta.Success || len(meta.Meta) != 0 {
		t.Fatalf("unexpected meta: %+v %v", meta, err)
	}
	if fv.calls[1] != "Categories!A:C" {
		t.Errorf("unexpected range %q", fv.calls[1])
	}
}

func TestClientFetchError(t *testing.T) {
	c := newClient(&fakeValues{err: errors.New("quota")}, Config{SpreadsheetID: "x", LedgerSheet: "2024"}, log.Discard())
	if _, err := c.FetchRecords(context.Background(), nil); !errors.Is(err, sources.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}
