package domain

// EntityLabel is a named-entity category.
type EntityLabel string

// Entity labels produced by the recognizer.
const (
	LabelCardinal EntityLabel = "CARDINAL"
	LabelMoney    EntityLabel = "MONEY"
	LabelPercent  EntityLabel = "PERCENT"
	LabelDate     EntityLabel = "DATE"
	LabelTime     EntityLabel = "TIME"
)

// Entity is a named entity with its surface text and owning sentence.
type Entity struct {
	Label    EntityLabel
	Text     string
	Sentence string
}

// DamageEntity is a CARDINAL or MONEY entity considered for damage counting.
type DamageEntity struct {
	Entity
	IsMeasurement bool
}

// EntitySet maps an entity label to the surface texts seen for it, in order.
// The zero value is ready to use.
type EntitySet struct {
	labels []EntityLabel
	byName map[EntityLabel][]string
}

// Add appends a surface text under label.
func (s *EntitySet) Add(label EntityLabel, text string) {
	if s.byName == nil {
		s.byName = make(map[EntityLabel][]string)
	}

	if _, ok := s.byName[label]; !ok {
		s.labels = append(s.labels, label)
	}

	s.byName[label] = append(s.byName[label], text)
}

// Get returns the surface texts recorded for label.
func (s *EntitySet) Get(label EntityLabel) []string {
	return s.byName[label]
}

// Labels returns labels in first-seen order.
func (s *EntitySet) Labels() []EntityLabel {
	return s.labels
}

// Count returns the number of surface texts recorded for label.
func (s *EntitySet) Count(label EntityLabel) int {
	return len(s.byName[label])
}

// Len returns the total number of recorded entities.
func (s *EntitySet) Len() int {
	total := 0
	for _, texts := range s.byName {
		total += len(texts)
	}

	return total
}
