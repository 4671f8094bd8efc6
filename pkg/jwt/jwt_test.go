package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/pkg/jwt"
)

const secret = "clave-de-prueba"

func TestGenerateAndParse(t *testing.T) {
	token, err := jwt.Generate(secret, "user-1", "bodeguero", "stock-control", 60)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := jwt.Parse(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "bodeguero", role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := jwt.Generate(secret, "user-1", "admin", "stock-control", 60)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otra-clave", token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := jwt.Generate(secret, "user-1", "admin", "stock-control", -1)
	require.NoError(t, err)

	_, _, err = jwt.Parse(secret, token)
	assert.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, err := jwt.Generate("", "user-1", "admin", "stock-control", 60)
	assert.Error(t, err)

	_, _, err = jwt.Parse("", "token")
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, _, err := jwt.Parse(secret, "no.es.un.token")
	assert.Error(t, err)
}
