package util

import "github.com/google/uuid"

// NewID gera o identificador opaco das ocorrências (UUID v4).
func NewID() string {
	return uuid.NewString()
}
