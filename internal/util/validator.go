package util

import (
	"errors"
	"regexp"
	"strings"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}

// ValidateClock aceita horários no formato HH:MM; vazio é permitido.
func ValidateClock(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !clockPattern.MatchString(value) {
		return errors.New("horário inválido, use HH:MM")
	}
	return nil
}

// ValidateCoordinates confere faixa de latitude/longitude quando informadas.
func ValidateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return errors.New("latitude e longitude devem ser informadas juntas")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return errors.New("latitude fora da faixa")
	}
	if *lng < -180 || *lng > 180 {
		return errors.New("longitude fora da faixa")
	}
	return nil
}
