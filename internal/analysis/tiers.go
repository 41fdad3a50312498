package analysis

// Cmp задает, как значение сравнивается с границей ступени.
type Cmp int

const (
	AtLeast Cmp = iota // value >= bound
	Above              // value > bound
	AtMost             // value <= bound
	Below              // value < bound
	Equal              // value == bound
)

func (c Cmp) holds(value, bound float64) bool {
	switch c {
	case AtLeast:
		return value >= bound
	case Above:
		return value > bound
	case AtMost:
		return value <= bound
	case Below:
		return value < bound
	case Equal:
		return value == bound
	default:
		return false
	}
}

// Step описывает одну ступень шкалы: если сравнение выполняется, начисляются Points.
type Step struct {
	Cmp    Cmp
	Bound  float64
	Points int
	Status string
}

// Ladder задает упорядоченную шкалу баллов; проверяется сверху вниз, первая сработавшая ступень выигрывает.
type Ladder struct {
	Steps      []Step
	Else       int
	ElseStatus string
}

// Points возвращает баллы для значения.
func (l Ladder) Points(value float64) int {
	points, _ := l.Evaluate(value)
	return points
}

// Evaluate возвращает баллы и текстовый статус сработавшей ступени.
func (l Ladder) Evaluate(value float64) (int, string) {
	for _, step := range l.Steps {
		if step.Cmp.holds(value, step.Bound) {
			return step.Points, step.Status
		}
	}
	return l.Else, l.ElseStatus
}

// Max возвращает максимально возможное число баллов по шкале.
func (l Ladder) Max() int {
	best := l.Else
	for _, step := range l.Steps {
		if step.Points > best {
			best = step.Points
		}
	}
	return best
}

// GradeBand задает нижнюю границу (включительно) оценки.
type GradeBand struct {
	Min   int
	Grade string
	Risk  RiskCategory
}

func lookupBand(bands []GradeBand, score int, fallback GradeBand) GradeBand {
	for _, band := range bands {
		if score >= band.Min {
			return band
		}
	}
	return fallback
}
