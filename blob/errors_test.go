package blob

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("presign: %w", NotFound("stat", "clients/1/a"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsInvalidInput(err))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, `presign: stat "clients/1/a": object not found`, err.Error())
}

func TestErrorKinds_HTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:  http.StatusBadRequest,
		KindAuthorization: http.StatusForbidden,
		KindNotFound:      http.StatusNotFound,
		KindConfiguration: http.StatusInternalServerError,
		KindBackend:       http.StatusBadGateway,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestConfigurationError_NamesSetting(t *testing.T) {
	err := ConfigurationError("STORAGE_BUCKET")
	assert.True(t, IsConfiguration(err))
	assert.Contains(t, err.Error(), "STORAGE_BUCKET")
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindBackend, KindOf(fmt.Errorf("plain")))
}
