package utils_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/utils"
)

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	m := utils.NewJWTManager("test-secret", time.Minute, time.Hour)
	subjectID := uuid.New()

	token, err := m.GenerateAccessToken(subjectID, "user@example.com", utils.RoleUser)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, subjectID, claims.SubjectID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, utils.RoleUser, claims.Role)
}

func TestJWTManager_RefreshTokenCarriesRole(t *testing.T) {
	m := utils.NewJWTManager("test-secret", time.Minute, time.Hour)
	subjectID := uuid.New()

	token, err := m.GenerateRefreshToken(subjectID, utils.RoleClient)
	require.NoError(t, err)

	gotID, role, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, subjectID, gotID)
	assert.Equal(t, utils.RoleClient, role)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	m := utils.NewJWTManager("test-secret", -time.Minute, time.Hour)
	token, err := m.GenerateAccessToken(uuid.New(), "user@example.com", utils.RoleUser)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	m := utils.NewJWTManager("test-secret", time.Minute, time.Hour)
	other := utils.NewJWTManager("other-secret", time.Minute, time.Hour)

	token, err := m.GenerateAccessToken(uuid.New(), "user@example.com", utils.RoleUser)
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}
