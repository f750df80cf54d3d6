package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue("21CS1023", "user", "collegedesk", "test-key", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := Parse(token, "test-key", "collegedesk")
	require.NoError(t, err)
	assert.Equal(t, "21CS1023", claims.RollNo)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "21CS1023", claims.Subject)
}

func TestParseExpired(t *testing.T) {
	token, _, err := Issue("21CS1023", "user", "collegedesk", "test-key", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "test-key", "collegedesk")
	assert.Error(t, err)
}

func TestParseWrongKey(t *testing.T) {
	token, _, err := Issue("21CS1023", "user", "collegedesk", "test-key", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "other-key", "collegedesk")
	assert.Error(t, err)
}

func TestParseIssuerMismatch(t *testing.T) {
	token, _, err := Issue("21CS1023", "user", "someone-else", "test-key", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "test-key", "collegedesk")
	assert.Error(t, err)
}
