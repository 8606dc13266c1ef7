package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsFindsWrappedError(t *testing.T) {
	base := NotFound("Feed stock")
	wrapped := fmt.Errorf("load: %w", base)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())
	assert.Equal(t, "Feed stock not found", typed.Message())
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(wrapped, CodeDuplicate))
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	assert.Nil(t, As(errors.New("boom")))
	assert.Nil(t, As(nil))
}

func TestMetadataDefaultsToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
	assert.False(t, meta.ExposeMessage)
}

func TestDuplicateAndDomainRuleAreBadRequests(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeDuplicate).HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeDomainRule).HTTPStatus)
	assert.Equal(t, http.StatusConflict, MetadataFor(CodeConcurrentUpdate).HTTPStatus)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(CodeDependency, cause, "mail relay unreachable")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "mail relay unreachable")
}

func TestValidationCarriesDetails(t *testing.T) {
	err := Validation("missing required fields", "feedType", "month")
	assert.Equal(t, []string{"feedType", "month"}, err.Details())
}
