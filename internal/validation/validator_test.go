package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Login string `json:"login" validate:"required,min=1,max=50,login"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(&sample{Login: "john.doe@x_-1", Email: "a@b.co"}))

	err := v.Struct(&sample{Login: "john doe", Email: "nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, FieldError{ObjectName: "sample", Field: "login", Message: "Pattern"}, verr.Fields[0])
	assert.Equal(t, "email", verr.Fields[1].Field)
	assert.Equal(t, "Email", verr.Fields[1].Message)
}

func TestValidator_IsEmail(t *testing.T) {
	v := Default()
	assert.True(t, v.IsEmail("alice@x.com"))
	assert.False(t, v.IsEmail("alice"))
	assert.False(t, v.IsEmail(""))
}

func TestLoginPattern(t *testing.T) {
	for _, ok := range []string{"", "alice", "a.b-c_d@e", "ABC123"} {
		assert.True(t, LoginPattern.MatchString(ok), ok)
	}
	for _, bad := range []string{"a b", "a/b", "ä", "a+b"} {
		assert.False(t, LoginPattern.MatchString(bad), bad)
	}
}
