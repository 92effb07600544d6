package qa

import "github.com/mercaline/mercabot/internal/classifier"

// Follow-up questions offered when retrieval quality is low, per topic.
var suggestionCatalog = map[string][]string{
	classifier.CategorySchedules: {
		"¿Cuáles son los horarios de la sucursal Centro?",
		"¿Abren los domingos y festivos?",
	},
	classifier.CategoryPromotions: {
		"¿Cómo funciona el programa Suma y Gana?",
		"¿Qué promociones tienen disponibles esta semana?",
	},
	classifier.CategoryGeneral: {
		"¿Qué métodos de pago aceptan?",
		"¿Cómo puedo contactar al servicio al cliente?",
	},
}

var suggestionClassifier = classifier.NewKeywordClassifier()

func suggestionsFor(question string) []string {
	category := suggestionClassifier.Classify(question)
	suggestions := suggestionCatalog[category]

	out := make([]string, len(suggestions))
	copy(out, suggestions)
	return out
}
