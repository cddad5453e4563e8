package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dastsc/nexus/internal/telemetry"
)

func testCatalog() *Catalog {
	return NewCatalog([]*Profile{
		{
			ID:   "class_323",
			Name: "BR Class 323",
			Fingerprint: Fingerprint{
				RequiredControls: []string{"Regulator", "TrainBrakeControl"},
			},
			TrainLengthM: 61,
		},
		{
			ID:   "class_323_dra",
			Name: "BR Class 323 (DRA fitted)",
			Fingerprint: Fingerprint{
				RequiredControls: []string{"Regulator", "TrainBrakeControl", "DRA"},
			},
			TrainLengthM: 61,
		},
		{
			ID:   "default_expert",
			Name: "Expert Default",
		},
	})
}

func snapWith(keys ...string) telemetry.Snapshot {
	snap := telemetry.Snapshot{}
	for _, k := range keys {
		snap[k] = telemetry.Number(0)
	}
	return snap
}

func TestMatchFingerprintMostSpecificWins(t *testing.T) {
	c := testCatalog()

	// Both fingerprints are satisfied; the larger one wins.
	got := c.MatchFingerprint(snapWith("Regulator", "TrainBrakeControl", "DRA", "AWS"))
	require.NotNil(t, got)
	assert.Equal(t, "class_323_dra", got.ID)

	// Only the smaller fingerprint is satisfied.
	got = c.MatchFingerprint(snapWith("Regulator", "TrainBrakeControl"))
	require.NotNil(t, got)
	assert.Equal(t, "class_323", got.ID)
}

func TestMatchFingerprintTieBreakCatalogOrder(t *testing.T) {
	c := NewCatalog([]*Profile{
		{ID: "first", Fingerprint: Fingerprint{RequiredControls: []string{"A", "B"}}},
		{ID: "second", Fingerprint: Fingerprint{RequiredControls: []string{"A", "C"}}},
	})

	got := c.MatchFingerprint(snapWith("A", "B", "C"))
	require.NotNil(t, got)
	assert.Equal(t, "first", got.ID, "equal-size fingerprints tie-break to insertion order")
}

func TestMatchFingerprintNoMatch(t *testing.T) {
	c := testCatalog()

	assert.Nil(t, c.MatchFingerprint(snapWith("CurrentSpeed")), "no fingerprint satisfied")

	// Profiles with empty fingerprints are never candidates, so a snapshot
	// matching nothing required still yields nil rather than default_expert.
	assert.Nil(t, c.MatchFingerprint(telemetry.Snapshot{}))
}

func TestMatchLocoName(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name     string
		locoName string
		wantID   string
	}{
		{"exact id case-insensitive", "CLASS_323", "class_323"},
		// Substring matching walks the catalog in order, so the first id
		// contained in the loco name wins even if a longer id also matches.
		{"id substring of loco name", "railpack class_323_dra v2", "class_323"},
		{"loco name substring of id", "323_dra", "class_323_dra"},
		{"fallback to default profile", "Baureihe 406 ICE", "default_expert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.MatchLocoName(tt.locoName)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestMatchLocoNameFallsBackToFirstEntry(t *testing.T) {
	c := NewCatalog([]*Profile{
		{ID: "alpha"},
		{ID: "beta"},
	})
	got := c.MatchLocoName("no such loco")
	require.NotNil(t, got)
	assert.Equal(t, "alpha", got.ID)

	empty := NewCatalog(nil)
	assert.Nil(t, empty.MatchLocoName("anything"))
}

func TestManualOverrideWinsUnconditionally(t *testing.T) {
	c := testCatalog()
	require.NoError(t, c.Select("default_expert"))

	// Even a perfect fingerprint match is ignored while the override is set.
	got := c.MatchFingerprint(snapWith("Regulator", "TrainBrakeControl", "DRA"))
	require.NotNil(t, got)
	assert.Equal(t, "default_expert", got.ID)

	got = c.MatchLocoName("class_323")
	require.NotNil(t, got)
	assert.Equal(t, "default_expert", got.ID)

	// AUTO clears the override and auto-detection resumes.
	require.NoError(t, c.Select(AutoID))
	assert.Nil(t, c.Manual())
	got = c.MatchFingerprint(snapWith("Regulator", "TrainBrakeControl", "DRA"))
	require.NotNil(t, got)
	assert.Equal(t, "class_323_dra", got.ID)
}

func TestSelectErrors(t *testing.T) {
	c := testCatalog()

	err := c.Select("no_such_profile")
	assert.ErrorIs(t, err, ErrUnknownProfile)
	assert.Nil(t, c.Manual(), "failed selection leaves state untouched")

	empty := NewCatalog(nil)
	assert.ErrorIs(t, empty.Select("anything"), ErrEmptyCatalog)
	assert.NoError(t, empty.Select(AutoID), "AUTO always succeeds")
}

func TestReload(t *testing.T) {
	c := NewCatalog([]*Profile{
		{ID: "class_323", Name: "Class 323"},
		{ID: "br_424", Name: "BR 424"},
	})
	require.NoError(t, c.Select("class_323"))

	// The manual selection follows the id across a reload.
	c.Reload([]*Profile{
		{ID: "class_323", Name: "Class 323 (rev 2)"},
		{ID: "class_158", Name: "Class 158"},
	})
	assert.Equal(t, 2, c.Len())
	require.NotNil(t, c.Manual())
	assert.Equal(t, "Class 323 (rev 2)", c.Manual().Name)

	// A selection whose id disappeared is cleared, not left dangling.
	c.Reload([]*Profile{{ID: "class_158", Name: "Class 158"}})
	assert.Nil(t, c.Manual())
}

func TestFieldForRole(t *testing.T) {
	p := &Profile{
		ID:       "class_323",
		Mappings: map[string]string{RoleThrottle: "VirtualThrottle"},
	}

	snap := snapWith("VirtualThrottle", "Regulator", "TractiveEffort")

	// Profile mapping wins over the fallback chain.
	field, ok := p.FieldForRole(RoleThrottle, snap)
	require.True(t, ok)
	assert.Equal(t, "VirtualThrottle", field)

	// Unmapped role walks the fallback chain in priority order.
	field, ok = p.FieldForRole(RoleEffort, snap)
	require.True(t, ok)
	assert.Equal(t, "TractiveEffort", field)

	// Mapped field absent from the snapshot: fall through to the chain.
	snapNoVirtual := snapWith("Regulator")
	field, ok = p.FieldForRole(RoleThrottle, snapNoVirtual)
	require.True(t, ok)
	assert.Equal(t, "Regulator", field)

	// No candidate present at all.
	_, ok = p.FieldForRole(RoleAmmeter, snapNoVirtual)
	assert.False(t, ok)

	// Nil profile uses only the fallbacks: the no-active-profile behaviour.
	var nilProfile *Profile
	field, ok = nilProfile.FieldForRole(RoleThrottle, snap)
	require.True(t, ok)
	assert.Equal(t, "Regulator", field)
}
