package catalog

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFiles embed.FS

// Lesson XP values by lesson type
const (
	IntroXP    = 50
	StandardXP = 75
	AdvancedXP = 100
	ProjectXP  = 125
	ExamXP     = 150
)

// Subject is a top-level area of study
type Subject struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Icon  string `yaml:"icon" json:"icon"`
	Color string `yaml:"color" json:"color"`
}

// Course is an ordered sequence of lessons within a subject
type Course struct {
	ID            string    `yaml:"id" json:"id"`
	Subject       string    `yaml:"subject" json:"subject"`
	Name          string    `yaml:"name" json:"name"`
	GradeLevel    string    `yaml:"grade_level" json:"grade_level"`
	Description   string    `yaml:"description" json:"description"`
	Prerequisites []string  `yaml:"prerequisites" json:"prerequisites"`
	Lessons       []*Lesson `yaml:"lessons" json:"lessons"`
}

// Lesson is a single unit of a course. Key and Order are derived from its position.
type Lesson struct {
	Key              string `yaml:"-" json:"key"`
	CourseID         string `yaml:"-" json:"course_id"`
	Subject          string `yaml:"-" json:"subject"`
	Order            int    `yaml:"-" json:"order"`
	Title            string `yaml:"title" json:"title"`
	Description      string `yaml:"description" json:"description"`
	XPValue          int    `yaml:"xp_value" json:"xp_value"`
	EstimatedMinutes int    `yaml:"estimated_minutes" json:"estimated_minutes"`
}

// Catalog is the immutable learning path plus the pet shop
type Catalog struct {
	subjects []*Subject
	courses  []*Course
	lessons  []*Lesson

	subjectByID map[string]*Subject
	courseByID  map[string]*Course
	lessonByKey map[string]*Lesson

	Pets *PetCatalog
}

type courseFile struct {
	Subjects []*Subject `yaml:"subjects"`
	Courses  []*Course  `yaml:"courses"`
}

// Data is the raw YAML behind a catalog
type Data struct {
	Courses []byte
	Pets    []byte
}

// RawData returns the embedded course and pet documents
func RawData() (*Data, error) {
	courses, err := dataFiles.ReadFile("data/courses.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read course data: %w", err)
	}
	pets, err := dataFiles.ReadFile("data/pets.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read pet data: %w", err)
	}
	return &Data{Courses: courses, Pets: pets}, nil
}

// Load parses the embedded course and pet data
func Load() (*Catalog, error) {
	data, err := RawData()
	if err != nil {
		return nil, err
	}
	return Parse(data.Courses, data.Pets)
}

// Parse builds a catalog from raw YAML documents and validates it
func Parse(coursesYAML, petsYAML []byte) (*Catalog, error) {
	var cf courseFile
	if err := yaml.Unmarshal(coursesYAML, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse course data: %w", err)
	}

	c := &Catalog{
		subjects:    cf.Subjects,
		courses:     cf.Courses,
		subjectByID: make(map[string]*Subject),
		courseByID:  make(map[string]*Course),
		lessonByKey: make(map[string]*Lesson),
	}

	for _, s := range c.subjects {
		if s.ID == "" {
			return nil, errors.New("subject with empty id")
		}
		if _, dup := c.subjectByID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate subject %q", s.ID)
		}
		c.subjectByID[s.ID] = s
	}

	for _, course := range c.courses {
		if _, dup := c.courseByID[course.ID]; dup {
			return nil, fmt.Errorf("duplicate course %q", course.ID)
		}
		if _, ok := c.subjectByID[course.Subject]; !ok {
			return nil, fmt.Errorf("course %q references unknown subject %q", course.ID, course.Subject)
		}
		if len(course.Lessons) == 0 {
			return nil, fmt.Errorf("course %q has no lessons", course.ID)
		}
		c.courseByID[course.ID] = course

		for i, lesson := range course.Lessons {
			lesson.Order = i + 1
			lesson.CourseID = course.ID
			lesson.Subject = course.Subject
			lesson.Key = LessonKey(course.ID, lesson.Order)
			if lesson.XPValue == 0 {
				lesson.XPValue = LessonXP(lesson.Title, lesson.Order)
			}
			if lesson.EstimatedMinutes == 0 {
				lesson.EstimatedMinutes = EstimateMinutes(lesson.Description)
			}
			c.lessonByKey[lesson.Key] = lesson
			c.lessons = append(c.lessons, lesson)
		}
	}

	for _, course := range c.courses {
		for _, prereq := range course.Prerequisites {
			if _, ok := c.courseByID[prereq]; !ok {
				return nil, fmt.Errorf("course %q has unknown prerequisite %q", course.ID, prereq)
			}
		}
	}

	pets, err := ParsePets(petsYAML)
	if err != nil {
		return nil, err
	}
	c.Pets = pets

	return c, nil
}

// LessonKey builds the stable identifier for the n-th lesson of a course
func LessonKey(courseID string, order int) string {
	return fmt.Sprintf("%s_L%02d", courseID, order)
}

// LessonXP classifies a lesson by its title when no explicit value is configured
func LessonXP(title string, order int) int {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "final") || strings.Contains(lower, "exam"):
		return ExamXP
	case strings.Contains(lower, "project"):
		return ProjectXP
	case order == 1 || strings.Contains(lower, "intro"):
		return IntroXP
	case strings.Contains(lower, "adv") || strings.Contains(lower, "complex"):
		return AdvancedXP
	default:
		return StandardXP
	}
}

// EstimateMinutes grows with description length, capped at 22 minutes
func EstimateMinutes(description string) int {
	return 15 + min(7, len(description)/15)
}

func (c *Catalog) Subjects() []*Subject { return c.subjects }

func (c *Catalog) Courses() []*Course { return c.courses }

// AllLessons returns every lesson in catalog order
func (c *Catalog) AllLessons() []*Lesson { return c.lessons }

func (c *Catalog) TotalLessons() int { return len(c.lessons) }

// Subject returns nil for an unknown id
func (c *Catalog) Subject(id string) *Subject { return c.subjectByID[id] }

// Course returns nil for an unknown id
func (c *Catalog) Course(id string) *Course { return c.courseByID[id] }

// Lesson returns nil for an unknown key
func (c *Catalog) Lesson(key string) *Lesson { return c.lessonByKey[key] }

// CoursesBySubject returns the courses of a subject in catalog order
func (c *Catalog) CoursesBySubject(subject string) []*Course {
	var out []*Course
	for _, course := range c.courses {
		if course.Subject == subject {
			out = append(out, course)
		}
	}
	return out
}

// NextLesson returns the lesson after key in the same course, or nil at the end
func (c *Catalog) NextLesson(key string) *Lesson {
	return c.relativeLesson(key, 1)
}

// PreviousLesson returns the lesson before key in the same course, or nil for the first
func (c *Catalog) PreviousLesson(key string) *Lesson {
	return c.relativeLesson(key, -1)
}

func (c *Catalog) relativeLesson(key string, delta int) *Lesson {
	lesson := c.lessonByKey[key]
	if lesson == nil {
		return nil
	}
	course := c.courseByID[lesson.CourseID]
	idx := lesson.Order - 1 + delta
	if idx < 0 || idx >= len(course.Lessons) {
		return nil
	}
	return course.Lessons[idx]
}
