package tasks

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"
)

const (
	MaxTitleLength = 200
	MaxTags        = 20
	MaxTagLength   = 32
)

// checkText rejects NUL bytes, which the Postgres text type cannot hold.
func checkText(field, value string) error {
	if strings.ContainsRune(value, 0) {
		return apperr.New(apperr.Validation, field+" must not contain null characters")
	}
	return nil
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if err := checkText("Title", title); err != nil {
		return "", err
	}
	if title == "" {
		return "", apperr.New(apperr.Validation, "Title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperr.New(apperr.Validation, fmt.Sprintf("Title must be at most %d characters", MaxTitleLength))
	}
	return title, nil
}

func parseStatus(raw string) (models.TaskStatus, error) {
	status := models.TaskStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", apperr.New(apperr.Validation, "Status must be pending or completed")
	}
	return status, nil
}

// parseDueDate treats an empty value as "no due date".
func parseDueDate(raw *string) (*models.Date, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	date, err := models.ParseDate(*raw)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Due date must be a date in YYYY-MM-DD format")
	}
	return &date, nil
}

// normalizeDescription trims the text; a blank description is stored as null.
func normalizeDescription(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	description := strings.TrimSpace(*raw)
	if err := checkText("Description", description); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, nil
	}
	return &description, nil
}

// normalizeTags trims every tag, drops blanks and repeats (first occurrence
// wins) and enforces the count and length limits. The result is never nil.
func normalizeTags(raw []string) ([]string, error) {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if err := checkText("Tags", tag); err != nil {
			return nil, err
		}
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, apperr.New(apperr.Validation, fmt.Sprintf("Tags must be at most %d characters", MaxTagLength))
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	if len(tags) > MaxTags {
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("A task can have at most %d tags", MaxTags))
	}
	return tags, nil
}
