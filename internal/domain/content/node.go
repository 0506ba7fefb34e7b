package content

import (
	"fmt"
	"strings"
)

// NodeKind names one entity type of the course hierarchy.
type NodeKind string

const (
	KindCourse             NodeKind = "course"
	KindLevel              NodeKind = "level"
	KindSection            NodeKind = "section"
	KindModule             NodeKind = "module"
	KindLesson             NodeKind = "lesson"
	KindExercise           NodeKind = "exercise"
	KindExerciseAssignment NodeKind = "exercise_assignment"
)

func (k NodeKind) String() string { return string(k) }

// ParseNodeKind accepts the canonical names plus the plural/dashed forms used in URLs.
func ParseNodeKind(raw string) (NodeKind, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.TrimSuffix(s, "s")
	switch NodeKind(s) {
	case KindCourse, KindLevel, KindSection, KindModule, KindLesson, KindExercise, KindExerciseAssignment:
		return NodeKind(s), nil
	}
	return "", fmt.Errorf("unknown node kind %q", raw)
}

// Scope describes where an owned child kind lives and which parent owns it.
// Every scope has a dense 1-based sort_order unique per parent.
type Scope struct {
	Kind         NodeKind
	Table        string
	ParentKind   NodeKind
	ParentColumn string
	// Timestamped is false for join rows that carry no updated_at of their own.
	Timestamped bool
}

var scopes = map[NodeKind]Scope{
	KindLevel:              {Kind: KindLevel, Table: "level", ParentKind: KindCourse, ParentColumn: "course_id", Timestamped: true},
	KindSection:            {Kind: KindSection, Table: "section", ParentKind: KindLevel, ParentColumn: "level_id", Timestamped: true},
	KindModule:             {Kind: KindModule, Table: "module", ParentKind: KindSection, ParentColumn: "section_id", Timestamped: true},
	KindLesson:             {Kind: KindLesson, Table: "lesson", ParentKind: KindModule, ParentColumn: "module_id", Timestamped: true},
	KindExerciseAssignment: {Kind: KindExerciseAssignment, Table: "exercise_assignment", ParentKind: KindLesson, ParentColumn: "lesson_id"},
}

var tables = map[NodeKind]string{
	KindCourse:             "course",
	KindLevel:              "level",
	KindSection:            "section",
	KindModule:             "module",
	KindLesson:             "lesson",
	KindExercise:           "exercise",
	KindExerciseAssignment: "exercise_assignment",
}

// ScopeFor returns the sibling scope of an owned child kind.
func ScopeFor(kind NodeKind) (Scope, bool) {
	s, ok := scopes[kind]
	return s, ok
}

// ChildScopes returns the scopes owned by kind, e.g. sections for a level.
func ChildScopes(kind NodeKind) []Scope {
	var out []Scope
	for _, k := range []NodeKind{KindLevel, KindSection, KindModule, KindLesson, KindExerciseAssignment} {
		if s := scopes[k]; s.ParentKind == kind {
			out = append(out, s)
		}
	}
	return out
}

// TableFor returns the table holding kind.
func TableFor(kind NodeKind) (string, bool) {
	t, ok := tables[kind]
	return t, ok
}
