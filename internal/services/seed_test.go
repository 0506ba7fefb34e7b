package services_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/curriculum-backend/internal/services"
)

const seedDoc = `
exercises:
  - key: add
    prompt: "2+2?"
    payload:
      choices: ["3", "4"]
      answer: 1
courses:
  - title: Arithmetic
    levels:
      - title: One
        sections:
          - title: Addition
            modules:
              - title: Small numbers
                lessons:
                  - title: Counting
                    content_md: "# Count"
                    estimated_minutes: 5
                    exercises: [add]
                  - title: Sums
                    exercises: [add]
      - title: Two
  - title: Review
    levels:
      - title: Recap
        sections:
          - title: All
            modules:
              - title: Mixed
                lessons:
                  - title: Quiz
                    kind: quiz
                    exercises: [add]
`

func TestSeedImportBuildsOrderedTrees(t *testing.T) {
	h := newHarness(t)
	imp := services.NewSeedImporter(h.log, h.content)

	res, err := imp.Import(h.ctx, strings.NewReader(seedDoc))
	require.NoError(t, err)
	require.Len(t, res.CourseIDs, 2)
	require.Equal(t, 1, res.Exercises)
	require.Equal(t, 3, res.Assignments)

	snap, err := h.version(t, res.CourseIDs[0]).Entry.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "Arithmetic", snap.Course.Title)
	require.Len(t, snap.Levels, 2)
	require.Equal(t, 2, snap.Levels[1].Order)
	lessons := snap.Levels[0].Sections[0].Modules[0].Lessons
	require.Len(t, lessons, 2)
	require.Equal(t, "Sums", lessons[1].Title)
	require.Equal(t, 2, lessons[1].Order)
	require.Equal(t, lessons[0].ExerciseAssignments[0].Exercise.ID, lessons[1].ExerciseAssignments[0].Exercise.ID)

	ids, err := h.resolver.CoursesReferencingExercise(h.ctx, lessons[0].ExerciseAssignments[0].Exercise.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, res.CourseIDs, ids)
}

func TestParseSeedRejectsBadReferences(t *testing.T) {
	_, err := services.ParseSeed(strings.NewReader(`
courses:
  - title: C
    levels:
      - title: L
        sections:
          - title: S
            modules:
              - title: M
                lessons:
                  - title: X
                    exercises: [missing]
`))
	require.ErrorContains(t, err, "unknown exercise")

	_, err = services.ParseSeed(strings.NewReader("exercises:\n  - key: a\n    prompt: p\n  - key: a\n    prompt: q\n"))
	require.ErrorContains(t, err, "duplicate key")

	_, err = services.ParseSeed(strings.NewReader("courses:\n  - title: C\n    colour: red\n"))
	require.Error(t, err)
}
