package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		content  string
		expected string
	}{
		{"¿A qué HORA abren los domingos?", CategorySchedules},
		{"cuál es el horario de atención", CategorySchedules},
		{"¿Tienen promociones esta semana?", CategoryPromotions},
		{"quiero redimir mis puntos", CategoryPromotions},
		{"¿dónde queda la sucursal Centro?", CategoryGeneral},
		{"", CategoryGeneral},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, c.Classify(tt.content), "content: %q", tt.content)
	}
}
