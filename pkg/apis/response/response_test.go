package response

import (
	"encoding/json"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestMultiErrorJSON(t *testing.T) {
	cause := pkgerrors.New("unknown field colour")
	errs := NewMultiError(ErrRequestBody)
	errs.Add(ErrCommandMalformed(2, cause), ErrCommandInvalid("commands[0].family: Required value"))
	require.Equal(t, 3, errs.Len())

	data, err := json.Marshal(errs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors":[
		{"code":10002,"message":"Request body error: at least one command is required."},
		{"code":10003,"message":"Command 2 could not be decoded: unknown field colour"},
		{"code":10004,"message":"Invalid command: commands[0].family: Required value"}
	]}`, string(data))
}

func TestResponseErrorUnwrap(t *testing.T) {
	cause := pkgerrors.New("boom")
	err := ErrCommandMalformed(0, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "10003: Command 0 could not be decoded: boom", err.Error())

	var empty *MultiError
	assert.Equal(t, 0, empty.Len())
}
