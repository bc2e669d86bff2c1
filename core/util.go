package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// OnlyDigits drops every non-digit rune of `s` (phones, CPF, CEP).
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// NewID returns a new random entity ID.
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether id looks like an entity ID.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Getwd finds the project root: the closest directory holding a go.mod.
// go-test changes the working directory to the package being tested, so the root has to be searched for.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
