package executor

import (
	"strings"

	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// Personalize подставляет атрибуты кандидата в шаблон сообщения.
// Распознаются {firstName}, {lastName}, {headline} и {profileUrl};
// отсутствующий атрибут заменяется пустой строкой, прочие плейсхолдеры остаются как есть.
func Personalize(template string, c models.Candidate) string {
	r := strings.NewReplacer(
		"{firstName}", c.FirstName,
		"{lastName}", c.LastName,
		"{headline}", c.Headline,
		"{profileUrl}", c.ProfileURL,
	)
	return r.Replace(template)
}
