// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"strings"
)

// ValidateFunctionRecord validates a FunctionRecord according to domain rules.
//
// Validation rules:
//   - ID, Name and Code must not be empty
//   - Language must be one of Languages
//   - Popularity must be in [1,10]
//   - Order must be empty, ascending or descending
//
// NOT validated (free-form authoring fields):
//   - Action and DataType (open vocabularies)
//   - Keywords (may be empty until enriched)
func ValidateFunctionRecord(record *FunctionRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRecord, record.ID, ErrEmptyName)
	}

	if strings.TrimSpace(record.Code) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRecord, record.ID, ErrEmptyCode)
	}

	if !record.Language.IsValid() {
		return fmt.Errorf("%w: %s: %w %q", ErrInvalidRecord, record.ID, ErrUnknownLanguage, record.Language)
	}

	if record.Popularity < 1 || record.Popularity > 10 {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRecord, record.ID, ErrInvalidPopularity)
	}

	switch record.Order {
	case OrderNone, OrderAscending, OrderDescending:
	default:
		return fmt.Errorf("%w: %s: %w %q", ErrInvalidRecord, record.ID, ErrInvalidOrder, record.Order)
	}

	return nil
}

// ParseLanguage converts user input to a Language.
// The empty string yields the empty Language, meaning "no filter".
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	lang := Language(s)
	if !lang.IsValid() {
		return "", fmt.Errorf("%w: %w %q", ErrInvalidArgument, ErrUnknownLanguage, s)
	}
	return lang, nil
}

// ValidateLanguageFilter checks an optional language filter.
func ValidateLanguageFilter(lang Language) error {
	if lang == "" || lang.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: %w %q", ErrInvalidArgument, ErrUnknownLanguage, lang)
}

// ValidateTopK checks a requested result count.
func ValidateTopK(topK int) error {
	if topK <= 0 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidArgument, ErrInvalidTopK, topK)
	}
	return nil
}
