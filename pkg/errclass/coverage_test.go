package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

func TestGovError_Error_EmptyCode(t *testing.T) {
	err := &errclass.GovError{Code: "", Message: "message only"}
	assert.Equal(t, ": message only", err.Error())
}

func TestGovError_Is_DifferentCode(t *testing.T) {
	err1 := errclass.ErrNameInvalid.WithMessage("message")
	err2 := errclass.ErrRecordNotFound.WithMessage("message")

	require.False(t, errors.Is(err1, err2))
	require.False(t, errors.Is(err2, err1))
}

func TestGovError_Is_WithStandardError(t *testing.T) {
	err := errclass.ErrNameInvalid.WithMessage("test")
	require.False(t, errors.Is(err, errors.New("some error")))
	require.False(t, errors.Is(errors.New("some error"), err))
	require.False(t, errors.Is(err, nil))
}

func TestGovError_WithMessage_LeavesBaseUnchanged(t *testing.T) {
	base := errclass.ErrRevisionConflict

	err1 := base.WithMessage("lookup changed")
	err2 := base.WithMessagef("lookup %s changed", "flagged_searches")

	assert.Equal(t, "E_REVISION_CONFLICT", err1.Code)
	assert.Equal(t, "lookup flagged_searches changed", err2.Message)
	assert.Empty(t, base.Message)
	assert.NotSame(t, base, err1)
}

func TestGovError_StableCodes(t *testing.T) {
	tests := []struct {
		err  *errclass.GovError
		code string
	}{
		{errclass.ErrInvalidTransition, "E_INVALID_TRANSITION"},
		{errclass.ErrAlreadyFlagged, "E_ALREADY_FLAGGED"},
		{errclass.ErrInvalidExtension, "E_INVALID_EXTENSION"},
		{errclass.ErrRequiresDisableConfirmation, "E_REQUIRES_DISABLE_CONFIRMATION"},
		{errclass.ErrUnknownStatus, "E_UNKNOWN_STATUS"},
		{errclass.ErrRecordNotFound, "E_RECORD_NOT_FOUND"},
		{errclass.ErrRevisionConflict, "E_REVISION_CONFLICT"},
		{errclass.ErrNameInvalid, "E_NAME_INVALID"},
		{errclass.ErrAuditChainBroken, "E_AUDIT_CHAIN_BROKEN"},
	}
	for i, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := tt.err.WithMessagef("test %d", i)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, fmt.Sprintf("%s: test %d", tt.code, i), err.Error())
		})
	}
}

func TestGovError_DeepWrapping(t *testing.T) {
	err := fmt.Errorf("level 3: %w",
		fmt.Errorf("level 2: %w",
			fmt.Errorf("level 1: %w", errclass.ErrAuditChainBroken.WithMessage("record 4"))))

	assert.True(t, errors.Is(err, errclass.ErrAuditChainBroken))

	var ge *errclass.GovError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "record 4", ge.Message)
}

func TestGovError_Joined(t *testing.T) {
	err := errors.Join(errors.New("webhook down"), errclass.ErrRevisionConflict)
	assert.True(t, errors.Is(err, errclass.ErrRevisionConflict))
	assert.False(t, errors.Is(err, errclass.ErrAlreadyFlagged))
}

func TestTransitionError_NoneAndUnnamed(t *testing.T) {
	err := &errclass.TransitionError{From: model.StatusNone, To: model.StatusPending}
	assert.Equal(t, "E_INVALID_TRANSITION: cannot move from none to pending", err.Error())

	err = &errclass.TransitionError{SearchName: "a", From: model.StatusResolved, To: model.StatusReview}
	assert.Equal(t, "E_INVALID_TRANSITION: cannot move 'a' from resolved to review", err.Error())
}

func TestTransitionError_IsNotOtherClasses(t *testing.T) {
	err := &errclass.TransitionError{From: model.StatusDisabled, To: model.StatusNotified}
	assert.False(t, errors.Is(err, errclass.ErrAlreadyFlagged))
	assert.False(t, errors.Is(err, errclass.ErrUnknownStatus))

	var ge *errclass.GovError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, errclass.ErrInvalidTransition.Code, ge.Code)
}
