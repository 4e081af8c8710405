package normalization

import (
	"regexp"
	"strings"
)

// NameRegistry канонические названия товаров. Свободное название из файла
// заменяется на первое (в порядке реестра) каноническое название, которое
// встречается в нем как подстрока без учета регистра.
type NameRegistry struct {
	entries  []string
	matchers []*regexp.Regexp
	// combined общий шаблон-альтернация для быстрого отсева; nil для пустого реестра,
	// иначе пустая альтернация совпала бы с любой строкой
	combined *regexp.Regexp
}

// NewNameRegistry строит реестр. Порядок entries сохраняется, пустые записи
// пропускаются, при повторах остается первое вхождение.
func NewNameRegistry(entries []string) *NameRegistry {
	r := &NameRegistry{}
	seen := make(map[string]bool, len(entries))
	quoted := make([]string, 0, len(entries))

	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		q := regexp.QuoteMeta(e)
		r.entries = append(r.entries, e)
		r.matchers = append(r.matchers, regexp.MustCompile("(?i)"+q))
		quoted = append(quoted, q)
	}

	if len(quoted) > 0 {
		r.combined = regexp.MustCompile("(?i)(?:" + strings.Join(quoted, "|") + ")")
	}
	return r
}

// Match возвращает каноническое название, если оно найдено в name
func (r *NameRegistry) Match(name string) (string, bool) {
	if r.combined == nil || !r.combined.MatchString(name) {
		return "", false
	}
	for i, m := range r.matchers {
		if m.MatchString(name) {
			return r.entries[i], true
		}
	}
	return "", false
}

// Normalize возвращает каноническое название или name без изменений
func (r *NameRegistry) Normalize(name string) string {
	if canonical, ok := r.Match(name); ok {
		return canonical
	}
	return name
}

// Len число записей после удаления пустых и повторов
func (r *NameRegistry) Len() int {
	return len(r.entries)
}

// Entries записи в порядке приоритета
func (r *NameRegistry) Entries() []string {
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}
