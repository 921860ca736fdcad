package catalog

// VisibleByDefault is how many lessons of each course are open without any progress
const VisibleByDefault = 3

// Lesson progress states
const (
	StatusLocked    = "locked"
	StatusAvailable = "available"
	StatusCompleted = "completed"
)

// Progress maps lesson keys to the user's recorded status
type Progress map[string]string

func (p Progress) Completed(key string) bool {
	return p[key] == StatusCompleted
}

// CompletedCount counts completed lessons across the catalog
func (p Progress) CompletedCount() int {
	n := 0
	for _, status := range p {
		if status == StatusCompleted {
			n++
		}
	}
	return n
}

// IsVisible reports whether a lesson is open to the user: the first few lessons of
// every course, anything with a progress row, and the successor of a completed lesson.
func (c *Catalog) IsVisible(lesson *Lesson, progress Progress) bool {
	if lesson == nil {
		return false
	}
	if lesson.Order <= VisibleByDefault {
		return true
	}
	if _, ok := progress[lesson.Key]; ok {
		return true
	}
	prev := c.PreviousLesson(lesson.Key)
	return prev != nil && progress.Completed(prev.Key)
}

// Status returns the display status of a lesson for the user
func (c *Catalog) Status(lesson *Lesson, progress Progress) string {
	if status, ok := progress[lesson.Key]; ok && status != "" {
		return status
	}
	if c.IsVisible(lesson, progress) {
		return StatusAvailable
	}
	return StatusLocked
}
