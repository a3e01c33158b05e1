package usecase

import (
	"time"

	"github.com/google/uuid"
)

func randomID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
