package storage

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[a-záéíóúñü]{4,}`)

// Words too common to carry analytical value.
var stopWords = map[string]struct{}{
	"que": {}, "como": {}, "cuando": {}, "donde": {}, "porque": {},
	"para": {}, "con": {}, "por": {}, "del": {}, "una": {}, "los": {},
	"las": {}, "tiene": {}, "esta": {}, "pero": {}, "más": {}, "sobre": {},
	"todo": {}, "también": {}, "hasta": {}, "otro": {}, "muy": {},
	"entre": {}, "hola": {}, "gracias": {}, "buenos": {}, "días": {},
	"buenas": {}, "tardes": {},
}

// extractKeywords tokenizes a user message into the lowercase words worth
// counting for the keyword-frequency statistics.
func extractKeywords(message string) []string {
	words := wordRe.FindAllString(strings.ToLower(message), -1)
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stopWords[w]; skip {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}
