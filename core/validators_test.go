package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/appraise/core"
)

type signup struct {
	Username        string `json:"username" validate:"required,alphanum_"`
	MatNo           string `json:"matno" validate:"omitempty,matno"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

func TestValidator_Struct(t *testing.T) {
	v := core.NewValidator()

	tests := []struct {
		name string
		in   signup
		want []core.FieldError
	}{
		{
			name: "valid",
			in:   signup{Username: "grace_h", MatNo: "De.2019/4521", Password: "pw", ConfirmPassword: "pw"},
		},
		{
			name: "required uses json names",
			in:   signup{},
			want: []core.FieldError{
				{Field: "username", Error: "this field is required"},
				{Field: "password", Error: "this field is required"},
			},
		},
		{
			name: "custom tags",
			in:   signup{Username: "grace!", MatNo: "AG 101", Password: "pw", ConfirmPassword: "wp"},
			want: []core.FieldError{
				{Field: "username", Error: "only alphanumeric characters and underscores are allowed"},
				{Field: "matno", Error: "matno must not contain spaces"},
				{Field: "confirmPassword", Error: "passwords do not match"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var vErr *core.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.want, vErr.Fields)
		})
	}
}

func TestValidator_inits(t *testing.T) {
	var called bool
	core.NewValidator(func(v *core.Validator) {
		called = true
		assert.NotNil(t, v.Validate)
		assert.NotNil(t, v.Translator)
	})
	assert.True(t, called)
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Grace Hopper", core.CleanString("  Grace Hopper\n"))
	assert.Equal(t, "grace@navy.mil", core.CleanString(" Grace@Navy.mil ", true))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", core.FormatTime(null.Time{}))

	at := time.Date(2021, 3, 9, 14, 5, 0, 0, time.Local)
	assert.Equal(t, "2021-03-09 14:05", core.FormatTime(null.TimeFrom(at)))
}
