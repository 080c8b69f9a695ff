package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const fieldHeaderPrefix = "Field of Study: "

// CourseEntry es una carrera del taxonomy de campos de estudio.
type CourseEntry struct {
	Field       string `json:"field"`
	Course      string `json:"course"`
	Description string `json:"description"`
}

// ParseFieldsOfStudy interpreta el recurso orientado a líneas:
// encabezados "Field of Study: X" seguidos de líneas "carrera: descripción".
// Líneas sueltas antes del primer encabezado se ignoran.
func ParseFieldsOfStudy(r io.Reader) ([]CourseEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []CourseEntry
	currentField := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, fieldHeaderPrefix) {
			currentField = strings.TrimSpace(strings.TrimPrefix(line, fieldHeaderPrefix))
			continue
		}
		if currentField == "" {
			continue
		}
		course, desc, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		entries = append(entries, CourseEntry{
			Field:       currentField,
			Course:      strings.TrimSpace(course),
			Description: strings.TrimSpace(desc),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("catalog: scan fields of study: %w", err)
	}
	return entries, nil
}

// LoadFieldsOfStudy carga el taxonomy desde disco.
func LoadFieldsOfStudy(path string) ([]CourseEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseFieldsOfStudy(f)
}
