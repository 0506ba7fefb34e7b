package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/repos/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type CourseRepo = content.CourseRepo
type LevelRepo = content.LevelRepo
type SectionRepo = content.SectionRepo
type ModuleRepo = content.ModuleRepo
type LessonRepo = content.LessonRepo
type ExerciseRepo = content.ExerciseRepo
type ExerciseAssignmentRepo = content.ExerciseAssignmentRepo
type SiblingRepo = content.SiblingRepo
type SiblingRow = content.SiblingRow
type VersionRepo = content.VersionRepo

// Content groups the table repos of the course hierarchy.
type Content struct {
	Course     CourseRepo
	Level      LevelRepo
	Section    SectionRepo
	Module     ModuleRepo
	Lesson     LessonRepo
	Exercise   ExerciseRepo
	Assignment ExerciseAssignmentRepo
	Sibling    SiblingRepo
	Version    VersionRepo
}

func NewContent(db *gorm.DB, log *logger.Logger) Content {
	return Content{
		Course:     content.NewCourseRepo(db, log),
		Level:      content.NewLevelRepo(db, log),
		Section:    content.NewSectionRepo(db, log),
		Module:     content.NewModuleRepo(db, log),
		Lesson:     content.NewLessonRepo(db, log),
		Exercise:   content.NewExerciseRepo(db, log),
		Assignment: content.NewExerciseAssignmentRepo(db, log),
		Sibling:    content.NewSiblingRepo(db, log),
		Version:    content.NewVersionRepo(db, log),
	}
}
