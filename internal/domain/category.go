package domain

import "slices"

// CategoryOther is the label for unknown or missing infrastructure types.
const CategoryOther = "Autre"

// categoryLabels maps uppercased source type codes to display labels.
var categoryLabels = map[string]string{
	"ECOLE":             "École",
	"ÉCOLE":             "École",
	"COLLEGE":           "Collège",
	"COLLÈGE":           "Collège",
	"LYCEE":             "Lycée",
	"LYCÉE":             "Lycée",
	"CRECHE":            "Crèche",
	"CRÈCHE":            "Crèche",
	"MAIRIE":            "Mairie",
	"GYMNASE":           "Gymnase",
	"PISCINE":           "Piscine",
	"BIBLIOTHEQUE":      "Bibliothèque",
	"BIBLIOTHÈQUE":      "Bibliothèque",
	"MEDIATHEQUE":       "Bibliothèque",
	"MÉDIATHÈQUE":       "Bibliothèque",
	"MUSEE":             "Musée",
	"MUSÉE":             "Musée",
	"ADMIN":             "Administration",
	"ADMINISTRATION":    "Administration",
	"SALLE":             "Salle polyvalente",
	"SALLE_POLYVALENTE": "Salle polyvalente",
	"STADE":             "Stade",
}

// Categories returns the distinct display labels in sorted order, followed by
// CategoryOther.
func Categories() []string {
	seen := make(map[string]struct{}, len(categoryLabels))
	out := make([]string, 0, len(categoryLabels)+1)
	for _, label := range categoryLabels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	slices.Sort(out)
	return append(out, CategoryOther)
}
