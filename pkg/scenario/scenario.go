// Package scenario holds the theme and hero catalog the player picks from
// before a game starts. A built-in French catalog ships with the binary;
// additional themes can be loaded from a JSON data directory.
package scenario

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SubTheme is a concrete scenario seed within a theme.
type SubTheme struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"` // scenario seed injected into the opening prompt
}

// Theme is a story universe offered on the theme selection screen.
type Theme struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Prompt    string     `json:"prompt"` // one-line universe description for the narrator
	SubThemes []SubTheme `json:"sub_themes,omitempty"`
}

// Hero is a playable character class.
type Hero struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var titleCaser = cases.Title(language.French)

// DisplayName returns the theme name, deriving one from the ID when a data
// file omits it.
func (t Theme) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return titleCaser.String(strings.ReplaceAll(t.ID, "_", " "))
}

// DisplayName returns the hero name, deriving one from the ID when absent.
func (h Hero) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return titleCaser.String(strings.ReplaceAll(h.ID, "_", " "))
}

// GenericSeed synthesizes a scenario seed for players who skip sub-theme
// selection.
func (t Theme) GenericSeed() string {
	return fmt.Sprintf("Invente une aventure originale dans cet univers : %s. "+
		"Choisis toi-même un point de départ surprenant mais rassurant.", t.Prompt)
}

// Catalog returns the built-in themes.
func Catalog() []Theme {
	return []Theme{
		{
			ID:     "foret_enchantee",
			Name:   "La Forêt Enchantée",
			Prompt: "une forêt magique peuplée de créatures merveilleuses, d'arbres qui parlent et de clairières secrètes",
			SubThemes: []SubTheme{
				{ID: "fee_perdue", Name: "La fée perdue", Prompt: "Une petite fée a perdu sa poussière magique et demande de l'aide pour la retrouver avant la nuit."},
				{ID: "arbre_millenaire", Name: "L'arbre millénaire", Prompt: "L'arbre le plus ancien de la forêt ne fleurit plus et les animaux s'inquiètent."},
				{ID: "pont_arc_en_ciel", Name: "Le pont arc-en-ciel", Prompt: "Un pont fait d'arc-en-ciel est apparu au-dessus de la rivière et personne ne sait où il mène."},
			},
		},
		{
			ID:     "ocean_mysterieux",
			Name:   "L'Océan Mystérieux",
			Prompt: "les profondeurs marines, des cités de corail, des dauphins messagers et des trésors engloutis",
			SubThemes: []SubTheme{
				{ID: "cite_corail", Name: "La cité de corail", Prompt: "La grande cité de corail a perdu ses couleurs et ses habitants cherchent pourquoi."},
				{ID: "baleine_chanteuse", Name: "La baleine chanteuse", Prompt: "Une baleine qui chantait pour guider les navires s'est tue mystérieusement."},
			},
		},
		{
			ID:     "espace_etoile",
			Name:   "Les Étoiles Lointaines",
			Prompt: "un voyage spatial entre planètes colorées, stations amicales et comètes apprivoisées",
			SubThemes: []SubTheme{
				{ID: "planete_bonbon", Name: "La planète bonbon", Prompt: "Une planète entièrement faite de sucreries a besoin d'un jardinier courageux."},
				{ID: "etoile_eteinte", Name: "L'étoile éteinte", Prompt: "Une étoile s'est éteinte et son petit gardien cherche comment la rallumer."},
			},
		},
		{
			ID:     "royaume_chevaliers",
			Name:   "Le Royaume des Chevaliers",
			Prompt: "un royaume médiéval chaleureux, des tournois amicaux, des dragons gourmands et des châteaux pleins de secrets",
			SubThemes: []SubTheme{
				{ID: "dragon_gourmand", Name: "Le dragon gourmand", Prompt: "Un jeune dragon mange toutes les tartes du royaume et le roi cherche une solution douce."},
				{ID: "tournoi_royal", Name: "Le tournoi royal", Prompt: "Le grand tournoi approche et un page rêve d'y participer malgré sa petite taille."},
			},
		},
	}
}

// Heroes returns the built-in hero classes.
func Heroes() []Hero {
	return []Hero{
		{ID: "exploratrice", Name: "Exploratrice intrépide", Description: "curieuse, observatrice, toujours munie de sa boussole et de son carnet de croquis"},
		{ID: "chevalier", Name: "Chevalier au grand cœur", Description: "courageux et gentil, protège les plus petits avec son bouclier en bois"},
		{ID: "magicienne", Name: "Apprentie magicienne", Description: "connaît trois petits sorts, pas toujours réussis, et adore les énigmes"},
		{ID: "inventeur", Name: "Inventeur farfelu", Description: "bricole des machines étonnantes avec tout ce qui lui tombe sous la main"},
	}
}

// FindTheme resolves a theme by ID or display name from the catalog plus
// any extra themes.
func FindTheme(themes []Theme, key string) (Theme, bool) {
	for _, t := range themes {
		if t.ID == key || t.DisplayName() == key {
			return t, true
		}
	}
	return Theme{}, false
}

// FindSubTheme resolves a sub-theme within a theme.
func (t Theme) FindSubTheme(key string) (SubTheme, bool) {
	for _, st := range t.SubThemes {
		if st.ID == key || st.Name == key {
			return st, true
		}
	}
	return SubTheme{}, false
}

// FindHero resolves a hero by ID or display name.
func FindHero(heroes []Hero, key string) (Hero, bool) {
	for _, h := range heroes {
		if h.ID == key || h.DisplayName() == key {
			return h, true
		}
	}
	return Hero{}, false
}

// LoadThemes reads additional theme files (*.json) from dir and appends
// them to the built-in catalog. A missing directory is not an error;
// unreadable or malformed files are skipped.
func LoadThemes(dir string) ([]Theme, error) {
	themes := Catalog()
	if dir == "" {
		return themes, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var t Theme
		if err := json.Unmarshal(data, &t); err != nil || t.Prompt == "" {
			return nil
		}
		if t.ID == "" {
			t.ID = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		themes = append(themes, t)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, fmt.Errorf("failed to walk theme directory: %w", err)
	}
	return themes, nil
}
