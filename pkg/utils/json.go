package utils

import (
	"errors"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrEmptyBody = errors.New("corpo da requisição vazio")

// DecodeJSON lê um único objeto JSON do corpo da requisição
func DecodeJSON(body io.Reader, v any) error {
	if body == nil {
		return ErrEmptyBody
	}

	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}

	return err
}
