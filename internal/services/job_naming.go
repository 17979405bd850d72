package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Naming convention for print job gcode files.
// Format: PRJ-{6 hex chars}-{PascalCase item slug}-B{batch}.3mf
// Example: PRJ-a1b2c3-MainBody-B1.3mf

var (
	jobFilenamePattern = regexp.MustCompile(`(?i)^PRJ-([a-f0-9]{6})-(.+)-B(\d+)\.3mf$`)
	nonAlphanumeric    = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// ParsedJobFilename holds the components encoded in a conforming gcode
// filename.
type ParsedJobFilename struct {
	ProjectShortID string
	ItemSlug       string
	BatchNumber    int
}

// GenerateJobFilename builds the gcode filename for a print job from the
// project UUID, the human-readable item name and the 1-indexed batch number.
func GenerateJobFilename(projectID, itemName string, batchNumber int) string {
	shortID := strings.ReplaceAll(projectID, "-", "")
	if len(shortID) > 6 {
		shortID = shortID[:6]
	}
	slug := slugifyItemName(itemName)
	if slug == "" {
		slug = "Item"
	}
	return fmt.Sprintf("PRJ-%s-%s-B%d.3mf", shortID, slug, batchNumber)
}

// ParseJobFilename decodes a gcode filename back into its components.
// Freely-named manual files are expected, so a non-conforming name returns
// ok=false rather than an error.
func ParseJobFilename(filename string) (*ParsedJobFilename, bool) {
	match := jobFilenamePattern.FindStringSubmatch(filename)
	if match == nil {
		return nil, false
	}
	batch, err := strconv.Atoi(match[3])
	if err != nil {
		return nil, false
	}
	return &ParsedJobFilename{
		ProjectShortID: match[1],
		ItemSlug:       match[2],
		BatchNumber:    batch,
	}, true
}

// slugifyItemName converts an item name to a PascalCase slug with no spaces
// or special characters.
func slugifyItemName(name string) string {
	cleaned := nonAlphanumeric.ReplaceAllString(name, "")
	words := strings.Fields(cleaned)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(strings.ToLower(w[1:]))
	}
	return b.String()
}
