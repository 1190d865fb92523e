package api

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/internal/server"
)

// maxParamLength bounds free-text query parameters such as passage references.
const maxParamLength = 128

// cleanParam strips control characters and truncates user-supplied text.
func cleanParam(input string) string {
	return server.LimitStringLength(server.SanitizeUserInput(input), maxParamLength)
}

// ValidateJobID checks that id is a job identifier before it is used as a
// map key or echoed back.
func ValidateJobID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.NewValidation("id", "not a job ID")
	}
	return nil
}

// positiveInt parses a path or query value that must be at least 1.
func positiveInt(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.NewValidation(field, fmt.Sprintf("must be a positive integer, got %q", cleanParam(raw)))
	}
	return n, nil
}
