package cache

import (
	"testing"
	"time"

	"marketlens/internal/model"
)

func keyRecords() []*model.NormalizedRecord {
	return []*model.NormalizedRecord{
		{ID: "a", Category: "Games", Source: "test", Metrics: map[string]float64{"rating": 4.5, "price": 0}},
		{ID: "b", Category: "Health", Source: "test", Metrics: map[string]float64{"rating": 3.9, "installs": model.Missing()}},
	}
}

func TestDatasetKey_OrderIndependent(t *testing.T) {
	cfg := model.DefaultConfig()

	records := keyRecords()
	reversed := []*model.NormalizedRecord{records[1], records[0]}

	if DatasetKey(records, cfg) != DatasetKey(reversed, cfg) {
		t.Error("Expected identical keys for permuted records")
	}
}

func TestDatasetKey_SensitiveToContent(t *testing.T) {
	cfg := model.DefaultConfig()

	base := DatasetKey(keyRecords(), cfg)

	changed := keyRecords()
	changed[0].Metrics["rating"] = 4.6
	if DatasetKey(changed, cfg) == base {
		t.Error("Expected key to change when a metric changes")
	}

	missingVsZero := keyRecords()
	missingVsZero[0].Metrics["price"] = model.Missing()
	if DatasetKey(missingVsZero, cfg) == base {
		t.Error("Expected missing and zero to hash differently")
	}
}

func TestDatasetKey_SensitiveToConfig(t *testing.T) {
	base := DatasetKey(keyRecords(), model.DefaultConfig())

	cfg := model.DefaultConfig()
	cfg.Stats.MinSample = 10
	if DatasetKey(keyRecords(), cfg) == base {
		t.Error("Expected key to change when configuration changes")
	}
}

func TestMemory_SetGetDelete(t *testing.T) {
	m := NewMemory(time.Minute)

	if err := m.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := m.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("Expected hit with value v, got %q (hit=%v)", got, ok)
	}

	if err := m.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := m.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestDisk_RoundTripAndExpiry(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}

	if err := d.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := d.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("Expected hit with value v, got %q (hit=%v)", got, ok)
	}

	if err := d.Set("expired", []byte("x"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := d.Get("expired"); ok {
		t.Error("Expected expired entry to miss")
	}

	if err := d.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := d.Get("k"); ok {
		t.Error("Expected miss after clear")
	}
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	memory := NewMemory(time.Minute)
	disk, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	layered := NewLayered(memory, disk, time.Minute)

	// Entry present only on disk, as after a process restart.
	if err := disk.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := layered.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Expected layered hit from disk, got %q (hit=%v)", got, ok)
	}

	if _, ok := memory.Get("k"); !ok {
		t.Error("Expected disk hit promoted into memory")
	}
}

func TestLayered_WritesBothLayers(t *testing.T) {
	memory := NewMemory(time.Minute)
	disk, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	layered := NewLayered(memory, disk, time.Minute)

	if err := layered.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok := memory.Get("k"); !ok {
		t.Error("Expected entry in memory layer")
	}
	if _, ok := disk.Get("k"); !ok {
		t.Error("Expected entry in disk layer")
	}
}
