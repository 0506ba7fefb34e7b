package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

// SeedFile is the YAML layout accepted by the seed importer. Lessons refer to
// exercises by key so one exercise can be shared across lessons and courses.
type SeedFile struct {
	Exercises []SeedExercise `yaml:"exercises"`
	Courses   []SeedCourse   `yaml:"courses"`
}

type SeedExercise struct {
	Key     string                 `yaml:"key"`
	Kind    string                 `yaml:"kind"`
	Prompt  string                 `yaml:"prompt"`
	Payload map[string]interface{} `yaml:"payload"`
}

type SeedCourse struct {
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Levels      []SeedLevel `yaml:"levels"`
}

type SeedLevel struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Sections    []SeedSection `yaml:"sections"`
}

type SeedSection struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Modules     []SeedModule `yaml:"modules"`
}

type SeedModule struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Lessons     []SeedLesson `yaml:"lessons"`
}

type SeedLesson struct {
	Title            string                 `yaml:"title"`
	Kind             string                 `yaml:"kind"`
	ContentMD        string                 `yaml:"content_md"`
	Content          map[string]interface{} `yaml:"content"`
	EstimatedMinutes int                    `yaml:"estimated_minutes"`
	Exercises        []string               `yaml:"exercises"`
}

type SeedResult struct {
	CourseIDs   []uuid.UUID `json:"course_ids"`
	Exercises   int         `json:"exercises"`
	Nodes       int         `json:"nodes"`
	Assignments int         `json:"assignments"`
}

// ParseSeed decodes and checks a seed document without touching the store.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f SeedFile
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	keys := map[string]bool{}
	for i, ex := range f.Exercises {
		key := strings.TrimSpace(ex.Key)
		if key == "" {
			return nil, fmt.Errorf("exercise %d: key is required", i)
		}
		if keys[key] {
			return nil, fmt.Errorf("exercise %q: duplicate key", key)
		}
		keys[key] = true
	}
	for _, c := range f.Courses {
		for _, l := range c.Levels {
			for _, s := range l.Sections {
				for _, m := range s.Modules {
					for _, lesson := range m.Lessons {
						for _, ref := range lesson.Exercises {
							if !keys[strings.TrimSpace(ref)] {
								return nil, fmt.Errorf("lesson %q: unknown exercise %q", lesson.Title, ref)
							}
						}
					}
				}
			}
		}
	}
	return &f, nil
}

// SeedImporter writes a seed document through the content service, so seeded
// trees get the same ordering and invalidation as API writes.
type SeedImporter struct {
	log     *logger.Logger
	content ContentService
}

func NewSeedImporter(baseLog *logger.Logger, svc ContentService) *SeedImporter {
	return &SeedImporter{
		log:     baseLog.With("service", "SeedImporter"),
		content: svc,
	}
}

func (s *SeedImporter) ImportFile(ctx context.Context, path string) (*SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.Import(ctx, f)
}

func (s *SeedImporter) Import(ctx context.Context, r io.Reader) (*SeedResult, error) {
	doc, err := ParseSeed(r)
	if err != nil {
		return nil, err
	}
	res := &SeedResult{}

	exercises := make(map[string]uuid.UUID, len(doc.Exercises))
	for _, ex := range doc.Exercises {
		payload, err := toJSON(ex.Payload)
		if err != nil {
			return res, fmt.Errorf("exercise %q payload: %w", ex.Key, err)
		}
		row, err := s.content.CreateExercise(ctx, ExerciseInput{Kind: ex.Kind, Prompt: ex.Prompt, Payload: payload})
		if err != nil {
			return res, fmt.Errorf("exercise %q: %w", ex.Key, err)
		}
		exercises[strings.TrimSpace(ex.Key)] = row.ID
		res.Exercises++
	}

	for _, c := range doc.Courses {
		courseID, err := s.importCourse(ctx, c, exercises, res)
		if err != nil {
			return res, fmt.Errorf("course %q: %w", c.Title, err)
		}
		res.CourseIDs = append(res.CourseIDs, courseID)
	}
	s.log.Info("seed imported",
		"courses", len(res.CourseIDs),
		"exercises", res.Exercises,
		"nodes", res.Nodes,
		"assignments", res.Assignments,
	)
	return res, nil
}

func (s *SeedImporter) importCourse(ctx context.Context, c SeedCourse, exercises map[string]uuid.UUID, res *SeedResult) (uuid.UUID, error) {
	course, err := s.content.CreateCourse(ctx, NodeInput{Title: c.Title, Description: c.Description})
	if err != nil {
		return uuid.Nil, err
	}
	res.Nodes++
	for _, l := range c.Levels {
		level, err := s.content.CreateLevel(ctx, course.ID, NodeInput{Title: l.Title, Description: l.Description})
		if err != nil {
			return course.ID, err
		}
		res.Nodes++
		for _, sec := range l.Sections {
			section, err := s.content.CreateSection(ctx, level.ID, NodeInput{Title: sec.Title, Description: sec.Description})
			if err != nil {
				return course.ID, err
			}
			res.Nodes++
			for _, m := range sec.Modules {
				module, err := s.content.CreateModule(ctx, section.ID, NodeInput{Title: m.Title, Description: m.Description})
				if err != nil {
					return course.ID, err
				}
				res.Nodes++
				for _, ls := range m.Lessons {
					body, err := toJSON(ls.Content)
					if err != nil {
						return course.ID, fmt.Errorf("lesson %q content: %w", ls.Title, err)
					}
					lesson, err := s.content.CreateLesson(ctx, module.ID, LessonInput{
						Title:            ls.Title,
						Kind:             ls.Kind,
						ContentMD:        ls.ContentMD,
						Content:          body,
						EstimatedMinutes: ls.EstimatedMinutes,
					})
					if err != nil {
						return course.ID, err
					}
					res.Nodes++
					for _, ref := range ls.Exercises {
						if _, err := s.content.AssignExercise(ctx, lesson.ID, exercises[strings.TrimSpace(ref)]); err != nil {
							return course.ID, err
						}
						res.Assignments++
					}
				}
			}
		}
	}
	return course.ID, nil
}

func toJSON(v map[string]interface{}) (json.RawMessage, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}
