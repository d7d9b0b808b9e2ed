package visa

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rulesV1 = `{"UTO": {"short_stay": {"text": "v1 short", "level": "ok"}, "long_stay": {"text": "v1 long", "level": "warn"}}}`
	rulesV2 = `{"UTO": {"short_stay": {"text": "v2 short", "level": "warn"}, "long_stay": {"text": "v2 long", "level": "warn"}}}`
)

func TestOpenStore(t *testing.T) {
	store, err := OpenStore("testdata/visa_rules.json", "testdata/visa_rules_version.json", nil)
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01", store.Version())

	a, err := store.Assess(specimen(), StayShort)
	require.NoError(t, err)
	assert.True(t, a.OK())
	assert.Equal(t, "2026-09-01", a.RulesVersion)
}

func TestOpenStore_LoadFailure(t *testing.T) {
	store, err := OpenStore("testdata/missing.json", "", nil)
	require.Error(t, err)
	require.NotNil(t, store)

	assert.Nil(t, store.Snapshot())
	assert.Equal(t, "", store.Version())

	_, err = store.Assess(specimen(), StayShort)
	assert.ErrorIs(t, err, ErrNoRules)
}

func TestStore_Reload(t *testing.T) {
	dir := t.TempDir()
	rp, vp := writeRules(t, dir, rulesV1, `{"visa_rules_version": "1"}`)

	store, err := OpenStore(rp, vp, nil)
	require.NoError(t, err)

	before := store.Snapshot()
	a, err := store.Assess(specimen(), StayShort)
	require.NoError(t, err)
	assert.Equal(t, "v1 short", a.Text)

	writeRules(t, dir, rulesV2, `{"visa_rules_version": "2"}`)
	table, err := store.Reload()
	require.NoError(t, err)
	assert.Equal(t, "2", table.Version)

	a, err = store.Assess(specimen(), StayShort)
	require.NoError(t, err)
	assert.Equal(t, "v2 short", a.Text)
	assert.Equal(t, "2", a.RulesVersion)

	// A snapshot taken before the reload is unaffected.
	assert.Equal(t, "1", before.Version)
	assert.Equal(t, "v1 short", before.Entries["UTO"].ShortStay.Text)
}

func TestStore_ReloadFailureKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	rp, vp := writeRules(t, dir, rulesV1, `{"visa_rules_version": "1"}`)

	store, err := OpenStore(rp, vp, nil)
	require.NoError(t, err)

	writeRules(t, dir, `{"uto": {}}`, `{"visa_rules_version": "broken"}`)
	_, err = store.Reload()
	require.Error(t, err)

	assert.Equal(t, "1", store.Version())
}

func TestStore_NoSource(t *testing.T) {
	store := NewStore(testTable(), nil)

	_, err := store.Reload()
	assert.True(t, errors.Is(err, ErrNoRuleSource))
	assert.Equal(t, "v-test", store.Version())

	store.Replace(RuleTable{Version: "replaced", Entries: map[string]RuleEntry{}})
	assert.Equal(t, "replaced", store.Version())

	_, err = store.Assess(specimen(), StayLong)
	var miss *LookupMissError
	assert.True(t, errors.As(err, &miss))
}

func TestStore_ConcurrentReload(t *testing.T) {
	dir := t.TempDir()
	rp, vp := writeRules(t, dir, rulesV1, `{"visa_rules_version": "1"}`)

	store, err := OpenStore(rp, vp, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				a, err := store.Assess(specimen(), StayShort)
				if err != nil {
					t.Errorf("Assess failed: %v", err)
					return
				}
				// text and version always come from the same snapshot
				if a.Text != "v1 short" && a.Text != "v2 short" {
					t.Errorf("unexpected text %q", a.Text)
				}
				if (a.Text == "v1 short") != (a.RulesVersion == "1") {
					t.Errorf("mixed snapshot: %+v", a)
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		if i%2 == 0 {
			store.Replace(mustParse(t, rulesV2, "2"))
		} else {
			store.Replace(mustParse(t, rulesV1, "1"))
		}
	}
	wg.Wait()
}

func mustParse(t *testing.T, rules, version string) RuleTable {
	t.Helper()
	table, err := ParseRules([]byte(rules), []byte(`{"visa_rules_version": "`+version+`"}`))
	require.NoError(t, err)
	return table
}
