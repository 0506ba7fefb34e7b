package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Timestamps are written explicitly from the service clock so updated_at
// moves on every mutation, order changes included.

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Level struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_level_course_order,priority:1" json:"course_id"`
	Order       int       `gorm:"column:sort_order;not null;uniqueIndex:idx_level_course_order,priority:2" json:"order"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Level) TableName() string { return "level" }

func (l *Level) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type Section struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LevelID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_section_level_order,priority:1" json:"level_id"`
	Order       int       `gorm:"column:sort_order;not null;uniqueIndex:idx_section_level_order,priority:2" json:"order"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Section) TableName() string { return "section" }

func (s *Section) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Module struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_module_section_order,priority:1" json:"section_id"`
	Order       int       `gorm:"column:sort_order;not null;uniqueIndex:idx_module_section_order,priority:2" json:"order"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Module) TableName() string { return "module" }

func (m *Module) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Lesson struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_module_order,priority:1" json:"module_id"`
	Order            int            `gorm:"column:sort_order;not null;uniqueIndex:idx_lesson_module_order,priority:2" json:"order"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	Kind             string         `gorm:"column:kind;not null;default:'reading'" json:"kind"`
	ContentMD        string         `gorm:"column:content_md;type:text" json:"content_md"`
	Content          datatypes.JSON `gorm:"column:content" json:"content,omitempty"`
	EstimatedMinutes int            `gorm:"column:estimated_minutes" json:"estimated_minutes"`
	CreatedAt        time.Time      `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Exercise is shared: lessons reference it through ExerciseAssignment and it
// has no parent of its own.
type Exercise struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      string         `gorm:"column:kind;not null;default:'multiple_choice'" json:"kind"`
	Prompt    string         `gorm:"column:prompt;type:text;not null" json:"prompt"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Exercise) TableName() string { return "exercise" }

func (e *Exercise) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ExerciseAssignment orders an Exercise inside a Lesson. It has no updated_at:
// mutations stamp the owning Lesson instead. CourseID is the reverse index used
// to fan out invalidations when a shared Exercise changes.
type ExerciseAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_lesson_order,priority:1" json:"lesson_id"`
	Order      int       `gorm:"column:sort_order;not null;uniqueIndex:idx_assignment_lesson_order,priority:2" json:"order"`
	ExerciseID uuid.UUID `gorm:"type:uuid;not null;index" json:"exercise_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
}

func (ExerciseAssignment) TableName() string { return "exercise_assignment" }

func (a *ExerciseAssignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Models lists every table for migrations.
func Models() []interface{} {
	return []interface{}{
		&Course{},
		&Level{},
		&Section{},
		&Module{},
		&Lesson{},
		&Exercise{},
		&ExerciseAssignment{},
	}
}
