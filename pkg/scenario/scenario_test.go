package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Complete(t *testing.T) {
	themes := Catalog()
	require.NotEmpty(t, themes)
	seen := make(map[string]bool)
	for _, theme := range themes {
		assert.NotEmpty(t, theme.ID)
		assert.NotEmpty(t, theme.Prompt)
		assert.False(t, seen[theme.ID], "duplicate theme id %s", theme.ID)
		seen[theme.ID] = true
		for _, st := range theme.SubThemes {
			assert.NotEmpty(t, st.ID)
			assert.NotEmpty(t, st.Prompt)
		}
	}
}

func TestHeroes_Complete(t *testing.T) {
	heroes := Heroes()
	require.NotEmpty(t, heroes)
	for _, h := range heroes {
		assert.NotEmpty(t, h.ID)
		assert.NotEmpty(t, h.Description)
	}
}

func TestDisplayName(t *testing.T) {
	named := Theme{ID: "foret_enchantee", Name: "La Forêt Enchantée"}
	assert.Equal(t, "La Forêt Enchantée", named.DisplayName())

	unnamed := Theme{ID: "vallee_des_geants"}
	assert.Equal(t, "Vallee Des Geants", unnamed.DisplayName())
}

func TestFindTheme(t *testing.T) {
	themes := Catalog()

	byID, ok := FindTheme(themes, "ocean_mysterieux")
	require.True(t, ok)
	assert.Equal(t, "L'Océan Mystérieux", byID.Name)

	byName, ok := FindTheme(themes, "L'Océan Mystérieux")
	require.True(t, ok)
	assert.Equal(t, "ocean_mysterieux", byName.ID)

	_, ok = FindTheme(themes, "inconnu")
	assert.False(t, ok)

	sub, ok := byID.FindSubTheme("cite_corail")
	require.True(t, ok)
	assert.NotEmpty(t, sub.Prompt)

	_, ok = byID.FindSubTheme("absent")
	assert.False(t, ok)
}

func TestFindHero(t *testing.T) {
	hero, ok := FindHero(Heroes(), "magicienne")
	require.True(t, ok)
	assert.Contains(t, hero.Description, "sorts")

	_, ok = FindHero(Heroes(), "pirate")
	assert.False(t, ok)
}

func TestGenericSeed(t *testing.T) {
	theme := Theme{ID: "x", Prompt: "un monde de nuages"}
	seed := theme.GenericSeed()
	assert.Contains(t, seed, "un monde de nuages")
}

func TestLoadThemes(t *testing.T) {
	dir := t.TempDir()

	valid := `{"id": "vallee_des_geants", "name": "La Vallée des Géants", "prompt": "des géants paisibles cultivent des jardins suspendus"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vallee.json"), []byte(valid), 0o644))
	// Malformed and promptless files are skipped, not fatal.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`{"id": "vide"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("pas du json"), 0o644))

	themes, err := LoadThemes(dir)
	require.NoError(t, err)
	assert.Len(t, themes, len(Catalog())+1)

	loaded, ok := FindTheme(themes, "vallee_des_geants")
	require.True(t, ok)
	assert.Equal(t, "La Vallée des Géants", loaded.Name)
}

func TestLoadThemes_MissingDir(t *testing.T) {
	themes, err := LoadThemes(filepath.Join(t.TempDir(), "absente"))
	require.NoError(t, err)
	assert.Len(t, themes, len(Catalog()))
}

func TestLoadThemes_IDFromFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "montagne.json"),
		[]byte(`{"prompt": "des sommets enneigés et des chamois farceurs"}`), 0o644))

	themes, err := LoadThemes(dir)
	require.NoError(t, err)
	_, ok := FindTheme(themes, "montagne")
	assert.True(t, ok)
}
