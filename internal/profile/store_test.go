package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "class_323.json", `{
		"name": "BR Class 323",
		"fingerprint": {"required_controls": ["Regulator", "TrainBrakeControl"]},
		"mappings": {"throttle": "Regulator"},
		"train_length_m": 61,
		"visuals": {"unit": "MPH"}
	}`)
	writeProfile(t, dir, "unnamed.json", `{"train_length_m": 122}`)
	writeProfile(t, dir, "broken.json", `{not json at all`)
	writeProfile(t, dir, "notes.txt", `ignored, wrong extension`)

	profiles, err := LoadDir(dir, nil)
	require.NoError(t, err)
	require.Len(t, profiles, 2, "broken record skipped, txt ignored")

	// Lexical filename order: class_323 before unnamed.
	assert.Equal(t, "class_323", profiles[0].ID)
	assert.Equal(t, "BR Class 323", profiles[0].Name)
	assert.Equal(t, 61.0, profiles[0].TrainLengthM)
	assert.Equal(t, []string{"Regulator", "TrainBrakeControl"}, profiles[0].Fingerprint.RequiredControls)

	// Missing name falls back to the file basename.
	assert.Equal(t, "unnamed", profiles[1].ID)
	assert.Equal(t, "unnamed", profiles[1].Name)
}

func TestLoadDirValidation(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "bad_unit.json", `{"name": "X", "visuals": {"unit": "KNOTS"}}`)
	writeProfile(t, dir, "bad_length.json", `{"name": "Y", "train_length_m": -5}`)
	writeProfile(t, dir, "good.json", `{"name": "Z"}`)

	profiles, err := LoadDir(dir, nil)
	require.NoError(t, err)
	require.Len(t, profiles, 1, "invalid records skipped")
	assert.Equal(t, "good", profiles[0].ID)
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}
