package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/nhle/trakker/internal/model"
)

// Generate creates a prefixed unique id, e.g. "col-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if id generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Temp returns an id for an optimistic entity. It always carries
// model.TempIDPrefix so it can never collide with a server id.
func Temp() string {
	return model.TempIDPrefix + gonanoid.Must()
}
