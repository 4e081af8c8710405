package normalization

import "strings"

const (
	modelLabel         = "型号："
	noModelPlaceholder = "无型号"
)

// ClauseRule фиксированная формулировка таможенного описания для набора категорий
type ClauseRule struct {
	Name       string
	Categories []string
	Clause     string
}

// DescriptionBuilder формирует таможенное описание: "<формулировка> 型号：<модели>"
type DescriptionBuilder struct {
	byCategory map[string]string
}

// NewDescriptionBuilder создает построитель. Если категория указана в нескольких
// правилах, действует первое.
func NewDescriptionBuilder(rules []ClauseRule) *DescriptionBuilder {
	d := &DescriptionBuilder{byCategory: make(map[string]string)}
	for _, rule := range rules {
		clause := strings.TrimSpace(rule.Clause)
		if clause == "" {
			continue
		}
		for _, c := range rule.Categories {
			key := categoryKey(c)
			if key == "" {
				continue
			}
			if _, exists := d.byCategory[key]; !exists {
				d.byCategory[key] = clause
			}
		}
	}
	return d
}

func categoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Clause формулировка для категории или ""
func (d *DescriptionBuilder) Clause(category string) string {
	return d.byCategory[categoryKey(category)]
}

// Build собирает описание для категории и списка моделей ("M1, M2")
func (d *DescriptionBuilder) Build(category, models string) string {
	body := modelLabel + noModelPlaceholder
	if strings.TrimSpace(models) != "" {
		body = modelLabel + models
	}
	if clause := d.Clause(category); clause != "" {
		return clause + " " + body
	}
	return body
}
