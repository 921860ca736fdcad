package catalog

import "math"

// Node types in the knowledge graph
const (
	NodeStudent = "student"
	NodeSubject = "subject"
	NodeCourse  = "course"
	NodeLesson  = "lesson"
)

// GraphNode is a D3 force-layout node. Fields not relevant to a node type are omitted.
type GraphNode struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Size  int    `json:"size"`

	// course
	Completion       float64 `json:"completion,omitempty"`
	GradeLevel       string  `json:"grade_level,omitempty"`
	TotalLessons     int     `json:"total_lessons,omitempty"`
	CompletedLessons int     `json:"completed_lessons,omitempty"`

	// lesson
	Description      string `json:"description,omitempty"`
	Status           string `json:"status,omitempty"`
	Visible          *bool  `json:"visible,omitempty"`
	XPValue          int    `json:"xp_value,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	Order            int    `json:"order,omitempty"`
	CourseID         string `json:"course_id,omitempty"`
	CourseName       string `json:"course_name,omitempty"`
}

type GraphLink struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// BuildGraph lays out student -> subject -> course -> lesson with the user's progress
func (c *Catalog) BuildGraph(studentName string, progress Progress) Graph {
	if studentName == "" {
		studentName = "You"
	}
	g := Graph{
		Nodes: []GraphNode{{ID: "student", Type: NodeStudent, Name: studentName, Color: "#f1c40f", Size: 45}},
	}

	for _, s := range c.subjects {
		g.Nodes = append(g.Nodes, GraphNode{ID: s.ID, Type: NodeSubject, Name: s.Name, Color: s.Color, Size: 35})
		g.Links = append(g.Links, GraphLink{Source: "student", Target: s.ID, Strength: 0.8})
	}

	for _, course := range c.courses {
		color := c.subjectByID[course.Subject].Color
		stats := c.courseStats(course, progress)

		g.Nodes = append(g.Nodes, GraphNode{
			ID:               course.ID,
			Type:             NodeCourse,
			Name:             course.Name,
			Color:            color,
			Size:             25,
			Completion:       stats.Percent,
			GradeLevel:       course.GradeLevel,
			TotalLessons:     stats.Total,
			CompletedLessons: stats.Completed,
		})
		g.Links = append(g.Links, GraphLink{Source: course.Subject, Target: course.ID, Strength: 0.6})

		for _, lesson := range course.Lessons {
			visible := c.IsVisible(lesson, progress)
			g.Nodes = append(g.Nodes, GraphNode{
				ID:               lesson.Key,
				Type:             NodeLesson,
				Name:             lesson.Title,
				Description:      lesson.Description,
				Color:            color,
				Size:             12,
				Status:           c.Status(lesson, progress),
				Visible:          &visible,
				XPValue:          lesson.XPValue,
				EstimatedMinutes: lesson.EstimatedMinutes,
				Order:            lesson.Order,
				CourseID:         course.ID,
				CourseName:       course.Name,
			})
			g.Links = append(g.Links, GraphLink{Source: course.ID, Target: lesson.Key, Strength: 0.4})
		}
	}

	return g
}

// CourseStats summarises completion of a single course
type CourseStats struct {
	CourseID  string  `json:"course_id"`
	Name      string  `json:"name"`
	Subject   string  `json:"subject"`
	Color     string  `json:"color"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// SubjectStats groups course stats under a subject colour
type SubjectStats struct {
	Subject *Subject      `json:"subject"`
	Courses []CourseStats `json:"courses"`
}

// Constellation is the per-course completion overview
type Constellation struct {
	Subjects  []SubjectStats `json:"subjects"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Percent   float64        `json:"percent"`
}

func (c *Catalog) Constellation(progress Progress) Constellation {
	out := Constellation{Total: len(c.lessons)}
	for _, s := range c.subjects {
		group := SubjectStats{Subject: s}
		for _, course := range c.CoursesBySubject(s.ID) {
			stats := c.courseStats(course, progress)
			out.Completed += stats.Completed
			group.Courses = append(group.Courses, stats)
		}
		out.Subjects = append(out.Subjects, group)
	}
	out.Percent = percent(out.Completed, out.Total)
	return out
}

func (c *Catalog) courseStats(course *Course, progress Progress) CourseStats {
	completed := 0
	for _, lesson := range course.Lessons {
		if progress.Completed(lesson.Key) {
			completed++
		}
	}
	return CourseStats{
		CourseID:  course.ID,
		Name:      course.Name,
		Subject:   course.Subject,
		Color:     c.subjectByID[course.Subject].Color,
		Completed: completed,
		Total:     len(course.Lessons),
		Percent:   percent(completed, len(course.Lessons)),
	}
}

// percent rounds to one decimal place
func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
