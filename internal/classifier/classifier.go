// Package classifier assigns a coarse category to customer messages for the
// conversation log and analytics.
package classifier

import "strings"

const (
	CategorySchedules  = "horarios"
	CategoryPromotions = "promociones"
	CategoryGeneral    = "general"
)

type Classifier interface {
	Classify(content string) string
}

// KeywordClassifier matches messages against per-category keyword lists.
type KeywordClassifier struct {
	categories map[string][]string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		categories: map[string][]string{
			CategorySchedules: {
				"horario", "hora", "abren", "cierran", "abierto",
				"domingo", "festivo", "atencion", "atención",
			},
			CategoryPromotions: {
				"promocion", "promoción", "promociones", "descuento",
				"oferta", "puntos", "suma", "gana", "redimir",
			},
		},
	}
}

// Classify returns the first category with a keyword present in the content,
// or CategoryGeneral when nothing matches.
func (c *KeywordClassifier) Classify(content string) string {
	content = strings.ToLower(content)

	for _, category := range []string{CategorySchedules, CategoryPromotions} {
		for _, keyword := range c.categories[category] {
			if strings.Contains(content, keyword) {
				return category
			}
		}
	}
	return CategoryGeneral
}
