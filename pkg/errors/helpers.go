// Copyright 2025 Tom Barlow
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

package errors

import (
	"errors"
	"fmt"
)

// The standard library helpers, re-exported so callers that import this
// package as "errors" need no second import.
func New(message string) error { return errors.New(message) }

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func Unwrap(err error) error { return errors.Unwrap(err) }

// Wrap prefixes err with message. A nil err stays nil so the call can wrap
// a return value directly:
//
//	return errors.Wrap(store.Record(ctx, runID, stage, counts), "recording statistics")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Classify returns the category of the first Classifier in err's chain.
func Classify(err error) string {
	if err == nil {
		return TypeNone
	}
	var c Classifier
	if errors.As(err, &c) {
		return c.ErrorType()
	}
	return TypeUnknown
}

// SuggestionFor returns the suggestion of the first Suggester in err's
// chain, or "" when there is none.
func SuggestionFor(err error) string {
	var s Suggester
	if errors.As(err, &s) {
		return s.Suggestion()
	}
	return ""
}
