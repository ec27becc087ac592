package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	avatarPrefix  = "avatars"
	messagePrefix = "messages"
	maxNameLength = 100
)

// AvatarKey derives the avatar key from the owner and the uploaded filename.
// The same user uploading the same filename always gets the same key.
func AvatarKey(userID uuid.UUID, filename string) string {
	return path.Join(avatarPrefix, userID.String(), sanitizeFilename(filename, "avatar"))
}

// MessageImageKey returns a fresh, collision-free key that keeps the original
// file extension
func MessageImageKey(filename string) string {
	return path.Join(messagePrefix, uuid.NewString()+extension(filename))
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(baseName(filename)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !isSafeRune(r) {
			return ""
		}
	}
	return ext
}

func baseName(filename string) string {
	// Browsers on Windows may send the full client path.
	filename = strings.ReplaceAll(filename, `\`, "/")
	return path.Base(strings.TrimSpace(filename))
}

func sanitizeFilename(filename, fallback string) string {
	name := baseName(filename)

	var b strings.Builder
	for _, r := range name {
		if isSafeRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return fallback
	}
	if len(cleaned) > maxNameLength {
		ext := extension(cleaned)
		cleaned = cleaned[:maxNameLength-len(ext)] + ext
	}
	return cleaned
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '_':
		return true
	}
	return false
}
