package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// só minúsculas e dígitos: o id entra em nomes de tabela
const characters = "abcdefghijklmnopqrstuvwxyz0123456789"

func GenerateID() (string, error) {
	return gonanoid.Generate(characters, 10)
}
